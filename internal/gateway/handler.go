package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/bizmatters/reasoning-console/internal/auth"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/bizmatters/reasoning-console/internal/status"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves the console API over one session controller
type Handler struct {
	session *session.Controller
	client  *orchestration.InferenceClient
	ws      *SessionStream
}

// NewHandler creates the console handler. allowedOrigins restricts websocket upgrades.
func NewHandler(controller *session.Controller, client *orchestration.InferenceClient, allowedOrigins []string) *Handler {
	return &Handler{
		session: controller,
		client:  client,
		ws:      NewSessionStream(controller, allowedOrigins),
	}
}

// RegisterRoutes mounts every console route on router. When jwtManager is nil the
// API is unauthenticated.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtManager *auth.JWTManager) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	operator := []gin.HandlerFunc{}
	if jwtManager != nil {
		api.Use(auth.RequireAuth(jwtManager))
		operator = append(operator, auth.RequireRole(auth.RoleOperator))
	}

	api.GET("/session", h.GetSession)
	api.GET("/session/messages", h.GetMessages)
	api.DELETE("/session/messages", h.ClearMessages)
	api.GET("/session/transcript", h.GetTranscript)
	api.POST("/session/prompt", h.SubmitPrompt)
	api.POST("/session/reconnect", h.Reconnect)
	api.POST("/session/status/refresh", h.RefreshStatus)
	api.GET("/ws/session", h.ws.Stream)

	api.GET("/files", h.ListFiles)
	api.POST("/files", append(operator, h.UploadFile)...)
	api.DELETE("/files/:name", append(operator, h.DeleteFile)...)
	api.POST("/train", append(operator, h.Train)...)
	api.POST("/generate", h.Generate)
	api.POST("/reset", append(operator, h.Reset)...)
	api.GET("/models", h.ListModels)
	api.POST("/models/save", append(operator, h.SaveModel)...)
	api.POST("/models/load", append(operator, h.LoadModel)...)
	api.DELETE("/models/:name", append(operator, h.DeleteModel)...)
}

// HealthResponse reports the console's own liveness and its view of the service
type HealthResponse struct {
	Status           string    `json:"status"`
	ServiceReachable bool      `json:"service_reachable"`
	LastCheckedAt    time.Time `json:"last_checked_at"`
}

// Health godoc
// @Summary Console health
// @Description Liveness of the console and last known reachability of the inference service
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	state := h.session.View().Connectivity
	c.JSON(http.StatusOK, HealthResponse{
		Status:           "healthy",
		ServiceReachable: state.Reachable,
		LastCheckedAt:    state.LastCheckedAt,
	})
}

// GetSession godoc
// @Summary Session state
// @Description Connectivity, model status, playback progress and the display log
// @Tags session
// @Produce json
// @Success 200 {object} session.View
// @Security BearerAuth
// @Router /api/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.View())
}

// GetMessages godoc
// @Summary Display log
// @Tags session
// @Produce json
// @Success 200 {array} models.DisplayMessage
// @Security BearerAuth
// @Router /api/session/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.View().Messages)
}

// ClearMessages godoc
// @Summary Clear the display log
// @Tags session
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/session/messages [delete]
func (h *Handler) ClearMessages(c *gin.Context) {
	if err := h.session.ClearMessages(); err != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodePlaybackInProgress,
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTranscript godoc
// @Summary Recorded transcript
// @Tags session
// @Produce json
// @Success 200 {array} models.DisplayMessage
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/session/transcript [get]
func (h *Handler) GetTranscript(c *gin.Context) {
	messages, err := h.session.Transcript(c.Request.Context())
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to load transcript")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load transcript",
			Code:  models.ErrCodeInternalError,
		})
		return
	}
	if messages == nil {
		messages = []models.DisplayMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

// SubmitPromptResponse acknowledges an accepted prompt
type SubmitPromptResponse struct {
	SessionID string `json:"session_id"`
	Accepted  bool   `json:"accepted"`
}

// SubmitPrompt godoc
// @Summary Submit a prompt
// @Description Starts a reasoning playback; progress is streamed over /api/ws/session
// @Tags session
// @Accept json
// @Produce json
// @Param request body session.PromptRequest true "Prompt and generation parameters"
// @Success 202 {object} SubmitPromptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 412 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/session/prompt [post]
func (h *Handler) SubmitPrompt(c *gin.Context) {
	var req session.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	if err := h.session.Submit(c.Request.Context(), req); err != nil {
		httpStatus, code := submitErrorStatus(err)
		c.JSON(httpStatus, models.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusAccepted, SubmitPromptResponse{
		SessionID: h.session.ID(),
		Accepted:  true,
	})
}

func submitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrEmptyPrompt), errors.Is(err, session.ErrInvalidParameter):
		return http.StatusBadRequest, models.ErrCodeValidationFailed
	case errors.Is(err, session.ErrPlaybackInProgress):
		return http.StatusConflict, models.ErrCodePlaybackInProgress
	case errors.Is(err, session.ErrModelNotTrained):
		return http.StatusPreconditionFailed, models.ErrCodeModelNotTrained
	case errors.Is(err, session.ErrServiceUnreachable):
		return http.StatusServiceUnavailable, models.ErrCodeServiceUnreachable
	default:
		return http.StatusInternalServerError, models.ErrCodeInternalError
	}
}

// Reconnect godoc
// @Summary Probe the inference service now
// @Tags session
// @Produce json
// @Success 200 {object} models.ConnectivityState
// @Security BearerAuth
// @Router /api/session/reconnect [post]
func (h *Handler) Reconnect(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Reconnect(c.Request.Context()))
}

// RefreshStatus godoc
// @Summary Fetch the model status now
// @Tags session
// @Produce json
// @Success 200 {object} models.StatusSnapshot
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/session/status/refresh [post]
func (h *Handler) RefreshStatus(c *gin.Context) {
	snapshot, err := h.session.RefreshStatus(c.Request.Context())
	if errors.Is(err, status.ErrUnreachable) {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeServiceUnreachable,
		})
		return
	}

	var reqErr *orchestration.RequestError
	if errors.As(err, &reqErr) {
		respondOutcome(c, orchestration.Outcome[models.StatusSnapshot]{
			Kind:       reqErr.Kind,
			StatusCode: reqErr.StatusCode,
			Detail:     reqErr.Detail,
		}, http.StatusOK)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// respondOutcome maps a gateway outcome onto the console API
func respondOutcome[T any](c *gin.Context, out orchestration.Outcome[T], okStatus int) {
	switch out.Kind {
	case orchestration.OutcomeOK:
		c.JSON(okStatus, out.Value)
	case orchestration.OutcomeTimeout:
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error: out.Err().Error(),
			Code:  models.ErrCodeUpstreamTimeout,
		})
	case orchestration.OutcomeTransportError:
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: out.Err().Error(),
			Code:  models.ErrCodeUpstreamTransport,
		})
	default:
		code := out.StatusCode
		// a 2xx whose body did not decode is still a bad upstream reply
		if code < http.StatusBadRequest {
			code = http.StatusBadGateway
		}
		c.JSON(code, models.ErrorResponse{
			Error:   out.Detail,
			Code:    models.ErrCodeUpstreamRejected,
			Details: map[string]string{"upstream_status": http.StatusText(out.StatusCode)},
		})
	}
}

package gateway

import (
	"net/http"
	"strings"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a single training file accepted by the console
const maxUploadBytes = 32 << 20

// ListFiles godoc
// @Summary List uploaded training files
// @Tags files
// @Produce json
// @Success 200 {object} models.FileList
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/files [get]
func (h *Handler) ListFiles(c *gin.Context) {
	respondOutcome(c, h.client.ListFiles(c.Request.Context()), http.StatusOK)
}

// UploadFile godoc
// @Summary Upload a training file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Training text"
// @Success 201 {object} models.UploadedFile
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/files [post]
func (h *Handler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Multipart field \"file\" is required",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Failed to read uploaded file",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}
	defer file.Close()

	respondOutcome(c, h.client.UploadFile(c.Request.Context(), header.Filename, file), http.StatusCreated)
}

// DeleteFile godoc
// @Summary Delete an uploaded training file
// @Tags files
// @Produce json
// @Param name path string true "File name"
// @Success 200 {object} models.ServiceMessage
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/files/{name} [delete]
func (h *Handler) DeleteFile(c *gin.Context) {
	respondOutcome(c, h.client.DeleteFile(c.Request.Context(), c.Param("name")), http.StatusOK)
}

// TrainRequest selects the uploaded files to train on. Zero tunables fall back to
// the defaults of the training form.
type TrainRequest struct {
	Files            []string `json:"files" binding:"required,min=1"`
	MaxPatterns      int      `json:"max_patterns" binding:"gte=0"`
	MaxPatternLength int      `json:"max_pattern_length" binding:"gte=0"`
	MinFrequency     int      `json:"min_frequency" binding:"gte=0"`
}

func (r TrainRequest) trainingConfig() models.TrainingConfig {
	cfg := models.DefaultTrainingConfig()
	if r.MaxPatterns > 0 {
		cfg.MaxPatterns = r.MaxPatterns
	}
	if r.MaxPatternLength > 0 {
		cfg.MaxPatternLength = r.MaxPatternLength
	}
	if r.MinFrequency > 0 {
		cfg.MinFrequency = r.MinFrequency
	}
	return cfg
}

// Train godoc
// @Summary Train the model on uploaded files
// @Tags model
// @Accept json
// @Produce json
// @Param request body TrainRequest true "Files and training tunables"
// @Success 200 {object} models.TrainingResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/train [post]
func (h *Handler) Train(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "At least one uploaded file must be selected",
			Code:  models.ErrCodeValidationFailed,
		})
		return
	}

	out := h.client.Train(c.Request.Context(), req.Files, req.trainingConfig())
	if out.Ok() {
		// training changes the model state; pick it up without waiting for the next poll
		if _, err := h.session.RefreshStatus(c.Request.Context()); err != nil {
			c.Error(err)
		}
	}
	respondOutcome(c, out, http.StatusOK)
}

// GenerateRequest asks for a plain generation without step playback
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

// Generate godoc
// @Summary Plain generation
// @Tags model
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Prompt and parameters"
// @Success 200 {object} models.GenerationResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Prompt is required",
			Code:  models.ErrCodeValidationFailed,
		})
		return
	}
	if req.MaxLength <= 0 {
		req.MaxLength = 50
	}
	if req.Temperature <= 0 {
		req.Temperature = 0.7
	}

	respondOutcome(c, h.client.Generate(c.Request.Context(), strings.TrimSpace(req.Prompt), req.MaxLength, req.Temperature), http.StatusOK)
}

// Reset godoc
// @Summary Discard the trained model
// @Tags model
// @Produce json
// @Success 200 {object} models.ServiceMessage
// @Security BearerAuth
// @Router /api/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	out := h.client.Reset(c.Request.Context())
	if out.Ok() {
		if _, err := h.session.RefreshStatus(c.Request.Context()); err != nil {
			c.Error(err)
		}
	}
	respondOutcome(c, out, http.StatusOK)
}

// ListModels godoc
// @Summary List saved models
// @Tags model
// @Produce json
// @Success 200 {object} models.ModelList
// @Security BearerAuth
// @Router /api/models [get]
func (h *Handler) ListModels(c *gin.Context) {
	respondOutcome(c, h.client.ListModels(c.Request.Context()), http.StatusOK)
}

// SaveModelRequest names the snapshot to persist
type SaveModelRequest struct {
	ModelName string `json:"model_name" binding:"required"`
}

// SaveModel godoc
// @Summary Save the current model
// @Tags model
// @Accept json
// @Produce json
// @Param request body SaveModelRequest true "Model name"
// @Success 201 {object} models.SavedModel
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/models/save [post]
func (h *Handler) SaveModel(c *gin.Context) {
	var req SaveModelRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ModelName) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "model_name is required",
			Code:  models.ErrCodeValidationFailed,
		})
		return
	}
	respondOutcome(c, h.client.SaveModel(c.Request.Context(), strings.TrimSpace(req.ModelName)), http.StatusCreated)
}

// LoadModelRequest names a saved model file
type LoadModelRequest struct {
	ModelFilename string `json:"model_filename" binding:"required"`
}

// LoadModel godoc
// @Summary Load a saved model
// @Tags model
// @Accept json
// @Produce json
// @Param request body LoadModelRequest true "Saved model file"
// @Success 200 {object} models.ServiceMessage
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/models/load [post]
func (h *Handler) LoadModel(c *gin.Context) {
	var req LoadModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "model_filename is required",
			Code:  models.ErrCodeValidationFailed,
		})
		return
	}

	out := h.client.LoadModel(c.Request.Context(), req.ModelFilename)
	if out.Ok() {
		if _, err := h.session.RefreshStatus(c.Request.Context()); err != nil {
			c.Error(err)
		}
	}
	respondOutcome(c, out, http.StatusOK)
}

// DeleteModel godoc
// @Summary Delete a saved model
// @Tags model
// @Produce json
// @Param name path string true "Model file name"
// @Success 200 {object} models.ServiceMessage
// @Security BearerAuth
// @Router /api/models/{name} [delete]
func (h *Handler) DeleteModel(c *gin.Context) {
	respondOutcome(c, h.client.DeleteModel(c.Request.Context(), c.Param("name")), http.StatusOK)
}

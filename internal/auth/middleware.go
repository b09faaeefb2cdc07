package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var middlewareTracer = otel.Tracer("auth-middleware")

// Gin context keys set by RequireAuth
const (
	SubjectKey = "subject"
	RolesKey   = "roles"
)

// RoleOperator may change the remote model (train, reset, load, delete)
const RoleOperator = "operator"

// RequireAuth is a Gin middleware that validates bearer tokens. Browsers cannot set
// headers on websocket upgrades, so a "token" query parameter is accepted as well.
func RequireAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_auth")
		defer span.End()

		token := extractBearerToken(c)
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "Missing or invalid authorization header",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		span.SetAttributes(attribute.Bool("auth.token_present", true))

		claims, err := jwtManager.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.token_valid", false))
			logger.WithFields(logrus.Fields{"error": err, "path": c.Request.URL.Path}).Warn("Invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "Invalid or expired token",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.token_valid", true),
			attribute.String("auth.subject", claims.Subject),
		)

		c.Set(SubjectKey, claims.Subject)
		c.Set(RolesKey, claims.Roles)

		logger.WithFields(logrus.Fields{
			"subject": claims.Subject,
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		}).Debug("Request authenticated")

		c.Next()
	}
}

// RequireRole is a Gin middleware that checks the roles attached by RequireAuth
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := middlewareTracer.Start(c.Request.Context(), "auth.require_role")
		defer span.End()

		span.SetAttributes(attribute.String("required.role", role))

		roles := c.GetStringSlice(RolesKey)
		if !slices.Contains(roles, role) {
			span.SetAttributes(attribute.Bool("auth.role_authorized", false))
			logger.WithFields(logrus.Fields{
				"subject":       c.GetString(SubjectKey),
				"required_role": role,
			}).Warn("Insufficient permissions")
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error: "Insufficient permissions",
				Code:  models.ErrCodeForbidden,
			})
			return
		}

		span.SetAttributes(attribute.Bool("auth.role_authorized", true))
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if header := c.GetHeader("Authorization"); header != "" {
		if !strings.HasPrefix(header, prefix) {
			return ""
		}
		return strings.TrimSpace(header[len(prefix):])
	}
	return c.Query("token")
}

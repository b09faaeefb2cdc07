package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(t *testing.T) (*gin.Engine, *JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := NewJWTManager("secret", "reasoning-console")
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api", RequireAuth(manager))
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(SubjectKey)})
	})
	api.POST("/reset", RequireRole(RoleOperator), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return router, manager
}

func TestRequireAuth(t *testing.T) {
	router, manager := newProtectedRouter(t)
	valid, _, err := manager.GenerateToken(context.Background(), "viewer", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		query          string
		expectedStatus int
	}{
		{name: "missing_header", expectedStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "invalid_token", header: "Bearer nope", expectedStatus: http.StatusUnauthorized},
		{name: "valid_header", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "valid_query_token", query: "?token=" + valid, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), "viewer")
			} else {
				assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	router, manager := newProtectedRouter(t)

	viewer, _, err := manager.GenerateToken(context.Background(), "viewer", nil, time.Hour)
	require.NoError(t, err)
	operator, _, err := manager.GenerateToken(context.Background(), "ops", []string{RoleOperator}, time.Hour)
	require.NoError(t, err)

	for token, expected := range map[string]int{viewer: http.StatusForbidden, operator: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, expected, w.Code)
	}
}

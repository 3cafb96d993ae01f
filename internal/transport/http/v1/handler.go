// Package v1 provides the versioned HTTP API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	limiter *PromptLimiter
	logger  *zap.Logger
}

// NewHandler creates a new handler. A nil limiter disables prompt rate limiting.
func NewHandler(svc *service.Service, limiter *PromptLimiter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: svc, limiter: limiter, logger: logger}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)

	api := e.Group("/v1", h.RequireAuth)
	api.GET("/users/me", h.Me)
	api.GET("/doctors", h.ListDoctors)

	prompt := []echo.MiddlewareFunc{}
	if h.limiter != nil {
		prompt = append(prompt, h.limiter.Middleware)
	}
	api.POST("/agent/prompt", h.Prompt, prompt...)
	api.GET("/agent/history", h.History)
	api.GET("/agent/conversation", h.GetConversation)
	api.DELETE("/agent/conversation", h.ClearConversation)
	api.DELETE("/agent/conversation/context", h.ClearContext)

	api.GET("/appointments", h.ListAppointments)
	api.POST("/appointments", h.CreateAppointment)
	api.PATCH("/appointments/:id", h.UpdateAppointment)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"model_configured": h.service.ModelConfigured(),
	})
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// writeError maps service errors to HTTP status codes.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	return errorJSON(c, status, err.Error())
}

// Package http provides the HTTP server implementation for the scheduling assistant.
package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/service"
	v1 "github.com/xiaot623/healthflow/internal/transport/http/v1"
	"github.com/xiaot623/healthflow/internal/transport/ws"
)

// Options configures NewServer.
type Options struct {
	// PromptRatePerMin and PromptBurst bound prompts per user; zero disables the limit.
	PromptRatePerMin float64
	PromptBurst      int
	// WebSocket is mounted at GET /ws when set.
	WebSocket *ws.Server
	Logger    *zap.Logger
}

// NewServer creates and configures the public HTTP server.
func NewServer(svc *service.Service, opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	var limiter *v1.PromptLimiter
	if opts.PromptRatePerMin > 0 {
		limiter = v1.NewPromptLimiter(opts.PromptRatePerMin, opts.PromptBurst, logger)
	}

	// Register Routes
	v1.NewHandler(svc, limiter, logger).RegisterRoutes(e)
	if opts.WebSocket != nil {
		e.GET("/ws", opts.WebSocket.HandleWebSocket)
	}

	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

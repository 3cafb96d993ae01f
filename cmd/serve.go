package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/adapter/calendar"
	"github.com/xiaot623/healthflow/internal/adapter/email"
	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/logging"
	"github.com/xiaot623/healthflow/internal/nlu"
	"github.com/xiaot623/healthflow/internal/repository"
	"github.com/xiaot623/healthflow/internal/service"
	"github.com/xiaot623/healthflow/internal/telemetry"
	"github.com/xiaot623/healthflow/internal/tools"
	httptransport "github.com/xiaot623/healthflow/internal/transport/http"
	"github.com/xiaot623/healthflow/internal/transport/ws"
	"github.com/xiaot623/healthflow/policy"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTPPort = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides HTTP_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(logging.Options{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting healthflow",
		zap.Int("port", cfg.HTTPPort),
		zap.String("database", cfg.DatabasePath),
		zap.String("llm_mode", cfg.LLMMode),
		zap.String("timezone", cfg.AppTimezone),
	)

	if cfg.TelemetryDir != "" {
		shutdown, err := telemetry.Init(ctx, cfg.TelemetryDir)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	// Initialize store
	store, err := repository.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	// Initialize policy engine
	policyEngine, err := loadPolicy(ctx, cfg.PolicyFile)
	if err != nil {
		return err
	}

	// Initialize LLM client
	llmClient, err := llm.NewLLMClient(ctx, llm.Config{
		Mode:         cfg.LLMMode,
		BaseURL:      cfg.LLMBaseURL,
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.LLMTimeout(),
	}, logger.Named("llm"))
	if err != nil {
		return err
	}
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	loc := nlu.LoadLocation(cfg.AppTimezone)
	toolDeps := tools.Deps{
		Users:        store,
		Appointments: store,
		Location:     loc,
		Logger:       logger.Named("tools"),
	}
	if cfg.GoogleCredentialsFile != "" {
		cal, err := calendar.NewGoogleCalendar(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID)
		if err != nil {
			logger.Warn("google calendar disabled", zap.Error(err))
		} else {
			toolDeps.Calendar = cal
		}
	}
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		mail, err := email.NewMailgunClient(cfg.MailgunBaseURL, cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.FromEmail)
		if err != nil {
			logger.Warn("mailgun disabled", zap.Error(err))
		} else {
			toolDeps.Email = mail
		}
	}

	tokens, err := newTokens(cfg, logger)
	if err != nil {
		return err
	}

	// Initialize service
	svc := service.New(service.Deps{
		Store:    store,
		Registry: tools.NewRegistry(toolDeps),
		LLM:      llmClient,
		Policy:   policyEngine,
		Tokens:   tokens,
		Config:   cfg,
		Logger:   logger.Named("service"),
	})
	go svc.Run(ctx)

	hub := ws.NewHub(logger.Named("ws"))
	go hub.Run(ctx)
	wsServer := ws.NewServer(svc, hub, ws.Options{
		PingInterval:   cfg.WSPingInterval(),
		WriteTimeout:   cfg.WSWriteTimeout(),
		ReadTimeout:    cfg.WSReadTimeout(),
		MaxMessageSize: cfg.WSMaxMessageSize,
		Logger:         logger.Named("ws"),
	})

	server := httptransport.NewServer(svc, httptransport.Options{
		PromptRatePerMin: cfg.PromptRatePerMin,
		PromptBurst:      cfg.PromptRateBurst,
		WebSocket:        wsServer,
		Logger:           logger.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("API started", zap.Int("port", cfg.HTTPPort), zap.Bool("model_configured", svc.ModelConfigured()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("healthflow stopped")
	return nil
}

func loadPolicy(ctx context.Context, path string) (*policy.Engine, error) {
	module := policy.DefaultPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		module = string(b)
	}
	engine, err := policy.NewEngine(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}
	return engine, nil
}

// newTokens falls back to a per-process secret outside production, which
// invalidates issued tokens on restart.
func newTokens(cfg *config.Config, logger *zap.Logger) (*auth.Tokens, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production: %w", auth.ErrNoSecret)
		}
		logger.Warn("JWT_SECRET is not set, using an ephemeral secret")
		secret = uuid.NewString()
	}
	return auth.NewTokens(secret, cfg.AccessTokenTTL())
}

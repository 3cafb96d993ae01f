package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/service"
	httptransport "github.com/xiaot623/healthflow/internal/transport/http"
	"github.com/xiaot623/healthflow/internal/transport/ws"
	"github.com/xiaot623/healthflow/tests/helpers"
)

func TestSeedIsIdempotent(t *testing.T) {
	store := helpers.NewTestSQLiteStore(t)
	ctx := context.Background()

	created, err := seed(ctx, store, "password123")
	require.NoError(t, err)
	assert.Equal(t, len(demoUsers), created)

	created, err = seed(ctx, store, "password123")
	require.NoError(t, err)
	assert.Zero(t, created)

	doctors, err := store.ListUsersByRole(ctx, domain.UserRoleDoctor)
	require.NoError(t, err)
	assert.Len(t, doctors, 3)

	patient, err := store.GetUserByEmail(ctx, "patient@healthflow.test")
	require.NoError(t, err)
	require.NotNil(t, patient)
	assert.NoError(t, auth.CheckPassword(patient.PasswordHash, "password123"))
}

func TestAPIBase(t *testing.T) {
	base, err := apiBase("ws://localhost:8080/ws")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", base)

	base, err = apiBase("wss://example.com/ws")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", base)
}

func TestChatAgainstServer(t *testing.T) {
	store := helpers.NewTestSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err := seed(ctx, store, "password123")
	require.NoError(t, err)

	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	svc := service.New(service.Deps{
		Store:  store,
		LLM:    llm.NewMockClient(),
		Tokens: tokens,
		Config: &config.Config{
			AppTimezone:       "Asia/Kolkata",
			LLMModel:          "mock",
			MaxToolIterations: 6,
			ToolTimeoutMS:     5000,
		},
		Logger: logger,
	})
	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	e := httptransport.NewServer(svc, httptransport.Options{
		WebSocket: ws.NewServer(svc, hub, ws.Options{Logger: logger}),
		Logger:    logger,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	addr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"chat", "--addr", addr, "--email", "patient@healthflow.test", "--password", "password123"})
	cmd.SetIn(strings.NewReader("who can I see?\n/clear\n/quit\n"))
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Connected as user")
	assert.Contains(t, out.String(), "assistant: ")
	assert.Contains(t, out.String(), "Dr. John Smith")
	assert.Contains(t, out.String(), "(conversation cleared)")
	assert.Contains(t, out.String(), "Bye!")
}

func TestChatRequiresCredentials(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"chat", "--addr", "ws://127.0.0.1:1/ws"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token")
}

package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/service"
	"github.com/xiaot623/healthflow/tests/helpers"
)

type testServer struct {
	url   string
	hub   *Hub
	token string
	svc   *service.Service
}

func newTestServer(t *testing.T, client llm.LLMClient) *testServer {
	t.Helper()
	store := helpers.NewTestSQLiteStore(t)
	helpers.CreateUser(t, store, "smith@clinic.test", "Dr. John Smith", domain.UserRoleDoctor)
	patient := helpers.CreateUser(t, store, "pat@example.com", "Pat", domain.UserRolePatient)

	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)
	token, err := tokens.Issue(patient.ID)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	svc := service.New(service.Deps{
		Store:  store,
		LLM:    client,
		Tokens: tokens,
		Config: &config.Config{
			AppTimezone:       "Asia/Kolkata",
			LLMModel:          "mock",
			MaxToolIterations: 6,
			ToolTimeoutMS:     5000,
		},
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(logger)
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", NewServer(svc, hub, Options{Logger: logger}).HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &testServer{
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:   hub,
		token: token,
		svc:   svc,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame interface{}, out interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(out))
}

func TestPromptRequiresHello(t *testing.T) {
	ts := newTestServer(t, llm.NewMockClient())
	conn := dial(t, ts.url)

	var resp ErrorMessage
	roundTrip(t, conn, PromptMessage{BaseMessage: BaseMessage{Type: TypePrompt, RequestID: "r1"}, Prompt: "hi"}, &resp)
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, ErrorCodeHelloRequired, resp.Code)
	assert.Equal(t, "r1", resp.RequestID)
}

func TestHelloRejectsBadToken(t *testing.T) {
	ts := newTestServer(t, llm.NewMockClient())
	conn := dial(t, ts.url)

	var resp ErrorMessage
	roundTrip(t, conn, HelloMessage{BaseMessage: BaseMessage{Type: TypeHello}, Token: "nope"}, &resp)
	assert.Equal(t, ErrorCodeUnauthorized, resp.Code)
}

func TestUnknownFrameType(t *testing.T) {
	ts := newTestServer(t, llm.NewMockClient())
	conn := dial(t, ts.url)

	var resp ErrorMessage
	roundTrip(t, conn, BaseMessage{Type: "bogus", RequestID: "x"}, &resp)
	assert.Equal(t, ErrorCodeInvalidMessage, resp.Code)
	assert.Contains(t, resp.Message, "bogus")
}

func TestHelloThenPrompt(t *testing.T) {
	ts := newTestServer(t, llm.NewMockClient())
	conn := dial(t, ts.url)

	var ack HelloAckMessage
	roundTrip(t, conn, HelloMessage{BaseMessage: BaseMessage{Type: TypeHello, RequestID: "h"}, Token: ts.token}, &ack)
	require.Equal(t, TypeHelloAck, ack.Type)
	assert.NotEmpty(t, ack.ConnectionID)
	assert.NotZero(t, ack.UserID)
	assert.Equal(t, 1, ts.hub.UserCount())

	var resp ResponseMessage
	roundTrip(t, conn, PromptMessage{BaseMessage: BaseMessage{Type: TypePrompt, RequestID: "p1"}, Prompt: "which doctors are available?"}, &resp)
	require.Equal(t, TypeResponse, resp.Type)
	assert.Equal(t, "p1", resp.RequestID)
	assert.Contains(t, resp.Response, "Dr. John Smith")
	assert.Equal(t, 6, ts.svc.ConversationSummary(ack.UserID).MessageCount)

	history, err := ts.svc.PromptHistory(context.Background(), ack.UserID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	var cleared BaseMessage
	roundTrip(t, conn, BaseMessage{Type: TypeClear, RequestID: "c"}, &cleared)
	assert.Equal(t, TypeCleared, cleared.Type)
	assert.Equal(t, 0, ts.svc.ConversationSummary(ack.UserID).MessageCount)

	var empty ErrorMessage
	roundTrip(t, conn, PromptMessage{BaseMessage: BaseMessage{Type: TypePrompt, RequestID: "p2"}, Prompt: " "}, &empty)
	assert.Equal(t, ErrorCodeEmptyPrompt, empty.Code)
}

func TestPromptWithoutModel(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dial(t, ts.url)

	var ack HelloAckMessage
	roundTrip(t, conn, HelloMessage{BaseMessage: BaseMessage{Type: TypeHello}, Token: ts.token}, &ack)

	var resp ErrorMessage
	roundTrip(t, conn, PromptMessage{BaseMessage: BaseMessage{Type: TypePrompt, RequestID: "p"}, Prompt: "hello"}, &resp)
	assert.Equal(t, ErrorCodeModelUnavailable, resp.Code)
	assert.Equal(t, service.ErrModelNotConfigured.Error(), resp.Message)
}

func TestHubDropsClosedConnections(t *testing.T) {
	ts := newTestServer(t, llm.NewMockClient())
	conn := dial(t, ts.url)

	var ack HelloAckMessage
	roundTrip(t, conn, HelloMessage{BaseMessage: BaseMessage{Type: TypeHello}, Token: ts.token}, &ack)
	require.Equal(t, 1, ts.hub.ConnectionCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return ts.hub.ConnectionCount() == 0 && ts.hub.UserCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

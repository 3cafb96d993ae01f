package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "Asia/Kolkata", cfg.AppTimezone)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
	assert.Equal(t, 6, cfg.MaxToolIterations)
	assert.Equal(t, 200, cfg.HistoryMaxMessages)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 15*time.Second, cfg.ToolTimeout())
	assert.Zero(t, cfg.SessionIdleTTL())
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 30*time.Second, cfg.WSPingInterval())
	assert.Equal(t, 10*time.Second, cfg.WSWriteTimeout())
	assert.Equal(t, time.Minute, cfg.WSReadTimeout())
	assert.Equal(t, int64(65536), cfg.WSMaxMessageSize)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("TOOL_TIMEOUT_MS", "500")
	t.Setenv("SESSION_IDLE_TTL_MS", "60000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.ToolTimeout())
	assert.Equal(t, time.Minute, cfg.SessionIdleTTL())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MAX_TOOL_ITERATIONS", "0")
	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "CHROMA_URL", "LLM_PROVIDER", "RETRIEVAL_TOP_K", "CHAT_REQUEST_TIMEOUT", "DOCCHAT_GREETING", "WATCH_INDEX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.ChromaURL)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, 4, cfg.TopK)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Equal(t, DefaultGreeting, cfg.Greeting)
	assert.False(t, cfg.WatchIndex)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", ProviderOllama)
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("CHAT_REQUEST_TIMEOUT", "45s")
	t.Setenv("WATCH_INDEX", "true")
	t.Setenv("DOCCHAT_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.WatchIndex)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 3, getEnvInt("TEST_INT", 3))

	t.Setenv("TEST_INT", "-2")
	assert.Equal(t, 3, getEnvInt("TEST_INT", 3))

	t.Setenv("TEST_DURATION", "12")
	assert.Equal(t, 12*time.Second, getEnvDuration("TEST_DURATION", 0))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", time.Minute))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("1m30s")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = ParseDuration("0")
	assert.NoError(t, err)
	assert.Zero(t, d)

	_, err = ParseDuration("-5s")
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("chat request", "question_len", 12)
	logger.Debug("hidden")

	require.Contains(t, stderr.String(), "chat request")
	assert.Contains(t, file.String(), `"question_len":12`)
	assert.NotContains(t, stderr.String(), "hidden")
}

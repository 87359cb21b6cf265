package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, "5120K", cfg.MaxBody())
}

func TestReadConfigEnv(t *testing.T) {
	t.Setenv("RICHDOC_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("RICHDOC_LOG_LEVEL", "debug")
	t.Setenv("RICHDOC_MD_EXTENSIONS", "false")
	t.Setenv("RICHDOC_MINIFY_HTML", "true")
	t.Setenv("RICHDOC_MAX_BODY_KB", "64")
	t.Setenv("RICHDOC_HISTORY_DEPTH", "")
	t.Setenv("RICHDOC_SESSION_IDLE_TTL", "2h")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.False(t, cfg.MarkdownExtensions)
	assert.True(t, cfg.MinifyHTML)
	assert.True(t, cfg.SanitizeHTML)
	assert.Equal(t, 64, cfg.MaxBodyKB)
	assert.Equal(t, 100, cfg.HistoryDepth)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, "@every 1m", cfg.SessionReapSchedule)
}

func TestReadConfigInvalid(t *testing.T) {
	tests := []struct {
		key, value, field string
	}{
		{"RICHDOC_LOG_LEVEL", "trace", "LogLevel"},
		{"RICHDOC_MAX_BODY_KB", "0", "MaxBodyKB"},
		{"RICHDOC_MAX_BODY_KB", "abc", "MaxBodyKB"},
		{"RICHDOC_HISTORY_DEPTH", "100000", "HistoryDepth"},
		{"RICHDOC_SESSION_IDLE_TTL", "-5m", "SessionIdleTTL"},
		{"RICHDOC_SESSION_IDLE_TTL", "soon", "SessionIdleTTL"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := ReadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "s****t", maskSecret("ApiSecret", "secret"))
	assert.Equal(t, "**", maskSecret("Token", "ab"))
	assert.Equal(t, ":8080", maskSecret("ListenAddr", ":8080"))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("RICHDOC_TEST_INT", "12")
	t.Setenv("RICHDOC_TEST_BOOL", "yes")

	assert.True(t, Exist("RICHDOC_TEST_INT"))
	assert.False(t, Exist("RICHDOC_TEST_MISSING"))
	assert.Equal(t, 12, GetIntEnv("RICHDOC_TEST_INT"))
	assert.False(t, GetBoolEnv("RICHDOC_TEST_BOOL"))
	assert.Equal(t, "", GetEnv("RICHDOC_TEST_MISSING"))
}

func TestGetDurationEnv(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"90s", 90 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"45", 45 * time.Second},
		{"0", 0},
		{"later", -1},
		{"", -1},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("RICHDOC_TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, GetDurationEnv("RICHDOC_TEST_DURATION"))
		})
	}
}

func TestSessionIdleTTLDisabled(t *testing.T) {
	t.Setenv("RICHDOC_SESSION_IDLE_TTL", "0")
	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.SessionIdleTTL)
}

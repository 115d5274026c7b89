package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nolyk/modbot/pkg/config"
)

func TestNewBuildsTextAndJSONHandlers(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		cfg := config.Config{}
		cfg.Logger.Level = "debug"
		cfg.Logger.Format = format

		log := New(cfg)
		require.NotNil(t, log)
		assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
	}
}

func TestNewWithSentryFanOut(t *testing.T) {
	cfg := config.Config{}
	cfg.Logger.Level = "info"
	cfg.Logger.Format = "json"
	cfg.Sentry.Enabled = true

	log := New(cfg)
	require.NotNil(t, log)

	// must not panic without an initialized hub
	log.Error("fan-out check")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("unknown"))
}

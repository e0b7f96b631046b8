package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Empty(t, cfg.Server.PublicBaseURL)
	assert.Equal(t, 3, cfg.YouTube.FailureThreshold)
	assert.True(t, cfg.YtDlp.Enabled)
	assert.Equal(t, "yt-dlp", cfg.YtDlp.Path)
	assert.Equal(t, []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}, cfg.Security.AllowedDomains)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 64, cfg.Stream.BufferKB)
	assert.EqualValues(t, 104857600, cfg.Logging.RotationSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("SERVER_PUBLIC_BASE_URL", "https://media.example.com/")
	t.Setenv("YOUTUBE_SOCKS_PROXY", "127.0.0.1:1080")
	t.Setenv("YOUTUBE_SESSION_FAILURE_THRESHOLD", "5")
	t.Setenv("YTDLP_ENABLED", "no")
	t.Setenv("ALLOWED_DOMAINS", " youtube.com , ,youtu.be")
	t.Setenv("STREAM_BUFFER_KB", "128")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "https://media.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, "127.0.0.1:1080", cfg.YouTube.SOCKSProxy)
	assert.Equal(t, 5, cfg.YouTube.FailureThreshold)
	assert.False(t, cfg.YtDlp.Enabled)
	assert.Equal(t, []string{"youtube.com", "youtu.be"}, cfg.Security.AllowedDomains)
	assert.Equal(t, 128, cfg.Stream.BufferKB)
}

func TestLoadRejectsNonPositive(t *testing.T) {
	t.Setenv("YOUTUBE_SESSION_FAILURE_THRESHOLD", "0")
	t.Setenv("SEARCH_MAX_LIMIT", "-4")
	t.Setenv("STREAM_BUFFER_KB", "abc")

	cfg := Load()

	assert.Equal(t, 3, cfg.YouTube.FailureThreshold)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 64, cfg.Stream.BufferKB)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_A", "TRUE")
	t.Setenv("FLAG_B", "0")
	t.Setenv("FLAG_C", "maybe")

	assert.True(t, getEnvBool("FLAG_A", false))
	assert.False(t, getEnvBool("FLAG_B", true))
	assert.True(t, getEnvBool("FLAG_C", true))
	assert.False(t, getEnvBool("FLAG_MISSING", false))
}

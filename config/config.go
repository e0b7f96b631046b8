package config

import (
	"os"
	"strconv"
	"strings"

	"ytstream/internal/model"

	"github.com/joho/godotenv"
)

const defaultAllowedDomains = "youtube.com,youtu.be,youtube-nocookie.com"

// Load loads configuration from environment variables
func Load() *model.Config {
	godotenv.Load()

	return &model.Config{
		Server: model.ServerConfig{
			Port:              getEnvInt("SERVER_PORT", 5000),
			Host:              getEnvStr("SERVER_HOST", "0.0.0.0"),
			ReadHeaderTimeout: getEnvInt("SERVER_READ_HEADER_TIMEOUT", 10),
			PublicBaseURL:     strings.TrimRight(getEnvStr("SERVER_PUBLIC_BASE_URL", ""), "/"),
		},
		YouTube: model.YouTubeConfig{
			HTTPProxy:        getEnvStr("YOUTUBE_HTTP_PROXY", ""),
			SOCKSProxy:       getEnvStr("YOUTUBE_SOCKS_PROXY", ""),
			ProxyUser:        getEnvStr("YOUTUBE_PROXY_USER", ""),
			ProxyPass:        getEnvStr("YOUTUBE_PROXY_PASS", ""),
			FailureThreshold: positive(getEnvInt("YOUTUBE_SESSION_FAILURE_THRESHOLD", 3), 3),
		},
		YtDlp: model.YtDlpConfig{
			Enabled: getEnvBool("YTDLP_ENABLED", true),
			Path:    getEnvStr("YTDLP_PATH", "yt-dlp"),
			Timeout: getEnvInt("YTDLP_TIMEOUT", 60),
		},
		Logging: model.LoggingConfig{
			Level:        getEnvStr("LOG_LEVEL", "info"),
			FilePath:     getEnvStr("LOG_FILE", "./log/app.log"),
			RotationSize: getEnvInt64("LOG_ROTATION_SIZE", 104857600),
			MaxBackups:   getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:       getEnvInt("LOG_MAX_AGE", 7),
		},
		Security: model.SecurityConfig{
			AllowedDomains: parseList(getEnvStr("ALLOWED_DOMAINS", defaultAllowedDomains)),
		},
		Search: model.SearchConfig{
			DefaultLimit: positive(getEnvInt("SEARCH_DEFAULT_LIMIT", 10), 10),
			MaxLimit:     positive(getEnvInt("SEARCH_MAX_LIMIT", 50), 50),
		},
		Stream: model.StreamConfig{
			BufferKB:      positive(getEnvInt("STREAM_BUFFER_KB", 64), 64),
			StatsInterval: getEnvInt("STREAM_STATS_INTERVAL", 60),
		},
	}
}

// parseList splits a comma-separated value, dropping empty entries
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return parseList(defaultAllowedDomains)
	}
	return out
}

func positive(val, defaultVal int) int {
	if val <= 0 {
		return defaultVal
	}
	return val
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnvStr(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	valStr := getEnvStr(key, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	valStr := strings.ToLower(getEnvStr(key, ""))
	if valStr == "true" || valStr == "1" || valStr == "yes" {
		return true
	}
	if valStr == "false" || valStr == "0" || valStr == "no" {
		return false
	}
	return defaultVal
}

package model

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	YouTube  YouTubeConfig
	YtDlp    YtDlpConfig
	Logging  LoggingConfig
	Security SecurityConfig
	Search   SearchConfig
	Stream   StreamConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port              int
	Host              string
	ReadHeaderTimeout int    // seconds
	PublicBaseURL     string // prefix for generated stream links, empty for relative links
}

// YouTubeConfig holds the upstream client session configuration
type YouTubeConfig struct {
	HTTPProxy        string // http(s)://host:port
	SOCKSProxy       string // host:port
	ProxyUser        string
	ProxyPass        string
	FailureThreshold int // consecutive upstream failures before the session is rebuilt
}

// YtDlpConfig holds the yt-dlp extractor configuration
type YtDlpConfig struct {
	Enabled bool
	Path    string
	Timeout int // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string
	FilePath     string
	RotationSize int64 // bytes
	MaxBackups   int
	MaxAge       int // days
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	AllowedDomains []string
}

// SearchConfig holds search defaults
type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// StreamConfig holds relay configuration
type StreamConfig struct {
	BufferKB      int
	StatsInterval int // seconds, 0 disables
}

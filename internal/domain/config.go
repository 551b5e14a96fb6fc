package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host      string  `mapstructure:"host"`
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second per client
	RateBurst int     `mapstructure:"rate_burst"`
}

// DownloadConfig contains download output configuration
type DownloadConfig struct {
	BaseDir            string `mapstructure:"base_dir"`
	LogsDir            string `mapstructure:"logs_dir"`
	PreferredContainer string `mapstructure:"preferred_container"`
	AudioCodec         string `mapstructure:"audio_codec"`
	AudioQuality       string `mapstructure:"audio_quality"`
}

// StorageConfig controls working-directory placement. CloudMode forces every
// working directory under the shared TempRoot regardless of destination.
type StorageConfig struct {
	CloudMode bool   `mapstructure:"cloud_mode"`
	TempRoot  string `mapstructure:"temp_root"`
}

// EngineConfig contains settings for the external extraction engine
type EngineConfig struct {
	Binary          string        `mapstructure:"binary"`
	FFmpegBinary    string        `mapstructure:"ffmpeg_binary"`
	Retries         int           `mapstructure:"retries"`
	FragmentRetries int           `mapstructure:"fragment_retries"`
	SocketTimeout   time.Duration `mapstructure:"socket_timeout"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath    string        `mapstructure:"database_path"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	AutoExitOnEmpty bool          `mapstructure:"auto_exit_on_empty"`
	EmptyWaitTime   time.Duration `mapstructure:"empty_wait_time"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8080,
			RateLimit: 10,
			RateBurst: 20,
		},
		Download: DownloadConfig{
			BaseDir:            "$HOME/Downloads/ytgrab",
			LogsDir:            "$HOME/Downloads/ytgrab/logs",
			PreferredContainer: "mp4",
			AudioCodec:         "mp3",
			AudioQuality:       "192K",
		},
		Storage: StorageConfig{
			CloudMode: false,
			TempRoot:  "",
		},
		Engine: EngineConfig{
			Binary:          "yt-dlp",
			FFmpegBinary:    "ffmpeg",
			Retries:         3,
			FragmentRetries: 3,
			SocketTimeout:   30 * time.Second,
			ProbeTimeout:    30 * time.Second,
		},
		Queue: QueueConfig{
			DatabasePath:    "$HOME/Downloads/ytgrab/config/queue.db",
			CheckInterval:   10 * time.Second,
			AutoExitOnEmpty: false,
			EmptyWaitTime:   5 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Sound:   true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is built once at startup and
// passed into components explicitly; nothing reads the environment after Load.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Server    ServerConfig    `yaml:"server"`
	Media     MediaConfig     `yaml:"media"`
	Access    AccessConfig    `yaml:"access"`
	Instagram InstagramConfig `yaml:"instagram"`
	Admin     AdminConfig     `yaml:"admin"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token    string `yaml:"token" envconfig:"BOT_TOKEN"`
	Language string `yaml:"language" envconfig:"LANGUAGE" default:"ua"`
	Debug    bool   `yaml:"debug" envconfig:"DEBUG"`
}

// ServerConfig holds the operational HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" envconfig:"SERVER_PORT" default:"8099"`
}

// MediaConfig holds pipeline thresholds and paths.
type MediaConfig struct {
	MaxDurationMinutes int           `yaml:"max_duration_minutes" envconfig:"MAX_DURATION_MINUTES" default:"12"`
	MaxFileSizeMB      int64         `yaml:"max_file_size_mb" envconfig:"MAX_FILE_SIZE_MB" default:"50"`
	TargetSizeMB       int64         `yaml:"target_size_mb" envconfig:"TARGET_SIZE_MB" default:"40"`
	ThrottleThreshold  int           `yaml:"throttle_threshold" envconfig:"THROTTLE_THRESHOLD" default:"10"`
	ThrottleDelay      time.Duration `yaml:"throttle_delay" envconfig:"THROTTLE_DELAY" default:"15s"`
	ExtractTimeout     time.Duration `yaml:"extract_timeout" envconfig:"EXTRACT_TIMEOUT" default:"120s"`
	TempPath           string        `yaml:"temp_path" envconfig:"TEMP_PATH"`
}

// AccessConfig holds the permission allow-lists.
type AccessConfig struct {
	// Limit enables access control; when false everyone may use the bot.
	Limit            bool     `yaml:"limit" envconfig:"LIMIT_BOT_ACCESS" default:"true"`
	AllowedUsernames []string `yaml:"allowed_usernames" envconfig:"ALLOWED_USERNAMES"`
	AllowedChatIDs   []int64  `yaml:"allowed_chat_ids" envconfig:"ALLOWED_CHAT_IDS"`
}

// InstagramConfig holds optional cookie authentication for the fallback extractor.
type InstagramConfig struct {
	CookiesEnabled bool   `yaml:"cookies_enabled" envconfig:"INSTACOOKIES"`
	CookieFile     string `yaml:"cookie_file" envconfig:"INSTAGRAM_COOKIE_FILE" default:"instagram_cookies.txt"`
}

// AdminConfig holds error escalation settings.
type AdminConfig struct {
	ChatIDs    []int64 `yaml:"chat_ids" envconfig:"ADMINS_CHAT_IDS"`
	SendErrors bool    `yaml:"send_errors" envconfig:"SEND_ERROR_TO_ADMIN"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Bot.Language != "ua" && c.Bot.Language != "en" {
		return fmt.Errorf("LANGUAGE must be \"ua\" or \"en\", got %q", c.Bot.Language)
	}
	if c.Media.MaxDurationMinutes <= 0 {
		return fmt.Errorf("MAX_DURATION_MINUTES must be positive")
	}
	if c.Media.TargetSizeMB >= c.Media.MaxFileSizeMB {
		return fmt.Errorf("TARGET_SIZE_MB (%d) must be below MAX_FILE_SIZE_MB (%d)",
			c.Media.TargetSizeMB, c.Media.MaxFileSizeMB)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxDuration returns the duration ceiling applied both to the remote
// pre-download check and to downloaded video files.
func (c *MediaConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMinutes) * time.Minute
}

// MaxFileSizeBytes returns the transport size ceiling in bytes.
func (c *MediaConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// TargetSizeBytes returns the compression byte budget. It sits below the size
// ceiling to leave margin for container and audio overhead.
func (c *MediaConfig) TargetSizeBytes() int64 {
	return c.TargetSizeMB * 1024 * 1024
}

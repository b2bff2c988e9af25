// Package config handles circled configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for circled.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Auth settings
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Assets settings (profile pictures)
	Assets AssetsConfig `yaml:"assets" mapstructure:"assets"`

	// Notify settings (client-side desktop notifications)
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// GlobalConfig contains global circled settings.
type GlobalConfig struct {
	// DataDir is where circled stores its data (default: ~/.local/share/circled).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/circled).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the address to listen on.
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the TCP port to listen on.
	Port int `yaml:"port" mapstructure:"port"`

	// BaseURL is the externally visible URL, used to resolve public
	// asset URLs. Defaults to http://<host>:<port>.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// ReadTimeout and WriteTimeout bound request handling. WriteTimeout
	// must stay zero: the SSE stream endpoint holds responses open.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// MaxConnections is the maximum number of database connections.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// AuthConfig contains identity service settings.
type AuthConfig struct {
	// TokenSecret signs session tokens. Required in production; a random
	// per-process secret is generated when empty.
	TokenSecret string `yaml:"token_secret" mapstructure:"token_secret"`

	// TokenTTL is how long issued session tokens stay valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// AssetsConfig contains profile-picture storage settings.
type AssetsConfig struct {
	// Dir is the local directory backing the object store.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// MaxUploadBytes caps decoded image size.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// NotifyConfig contains desktop notification settings for the client.
type NotifyConfig struct {
	// Permission is the notification permission state (default, granted,
	// denied). The core treats it as read-only platform state.
	Permission string `yaml:"permission" mapstructure:"permission"`

	// IconURL is shown on desktop notifications.
	IconURL string `yaml:"icon_url" mapstructure:"icon_url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "circled"),
			ConfigDir: filepath.Join(homeDir, ".config", "circled"),
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8486,
			ReadTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:           "", // Will be set to DataDir/circled.db
			MaxConnections: 10,
			BusyTimeoutMs:  5000,
		},
		Auth: AuthConfig{
			TokenTTL:   30 * 24 * time.Hour,
			BcryptCost: 10,
		},
		Assets: AssetsConfig{
			Dir:            "", // Will be set to DataDir/assets
			MaxUploadBytes: 10 << 20,
		},
		Notify: NotifyConfig{
			Permission: "default",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port")
	}
	if c.Auth.TokenTTL < time.Minute {
		return fmt.Errorf("auth.token_ttl must be at least 1m")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	if c.Assets.MaxUploadBytes < 1 {
		return fmt.Errorf("assets.max_upload_bytes must be positive")
	}
	switch c.Notify.Permission {
	case "default", "granted", "denied":
	default:
		return fmt.Errorf("notify.permission must be one of default, granted, denied")
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
		c.AssetsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "circled.db")
}

// AssetsDir returns the full asset storage directory.
func (c *Config) AssetsDir() string {
	if c.Assets.Dir != "" {
		return c.Assets.Dir
	}
	return filepath.Join(c.Global.DataDir, "assets")
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// PublicBaseURL returns the externally visible base URL.
func (c *Config) PublicBaseURL() string {
	if c.Server.BaseURL != "" {
		return c.Server.BaseURL
	}
	return fmt.Sprintf("http://%s", c.ListenAddr())
}

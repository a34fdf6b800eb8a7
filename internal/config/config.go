package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Converter ConverterConfig `yaml:"converter" envconfig:"CONVERTER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig throttles the API when enabled
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// DatabaseConfig contains row-source connection configuration.
// Any database/sql driver registered by the binary can be selected here;
// cmd/web registers modernc.org/sqlite by default.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"DRIVER"`
	DSN             string        `yaml:"dsn" envconfig:"DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
}

// StorageConfig contains file system paths for templates and scratch space
type StorageConfig struct {
	TemplatesDir string `yaml:"templates_dir" envconfig:"TEMPLATES_DIR"`
	TempDir      string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	MaxUploadMB  int64  `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
}

// ConverterConfig controls the external document renderer
type ConverterConfig struct {
	Binary  string        `yaml:"binary" envconfig:"BINARY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in configuration values
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: false,
				RPS:     50,
				Burst:   100,
			},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "data/reports.db",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Storage: StorageConfig{
			TemplatesDir: "uploads/templates",
			TempDir:      "temp",
			MaxUploadMB:  10,
		},
		Converter: ConverterConfig{
			Binary:  "soffice",
			Timeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
	}
}

// Load loads configuration in order of precedence: defaults, then an optional
// YAML file, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("REPORTFORGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getConfigFilePath() string {
	if path := os.Getenv("REPORTFORGE_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// EnsureDirectories creates the directories the pipeline writes to
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.TemplatesDir,
		c.Storage.TempDir,
		filepath.Dir(c.Logging.FilePath),
	}
	if c.Database.Driver == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Database.DSN))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	if c.Database.Driver == "" {
		return fmt.Errorf("database driver must be set")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must be set")
	}

	if c.Storage.TemplatesDir == "" {
		return fmt.Errorf("templates directory must be set")
	}

	if c.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if c.Converter.Binary == "" {
		return fmt.Errorf("converter binary must be set")
	}

	if c.Converter.Timeout <= 0 {
		return fmt.Errorf("converter timeout must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}

	return nil
}

// MaxUploadBytes returns the upload size cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB * 1024 * 1024
}

// Package config provides centralized application configuration with
// YAML file loading, environment variable overrides, and sane defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Stream configuration
	Stream StreamConfig `yaml:"stream" json:"stream"`

	// Extractor configuration
	Extractor ExtractorConfig `yaml:"extractor" json:"extractor"`

	// Recordings configuration
	Recordings RecordingsConfig `yaml:"recordings" json:"recordings"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"STREAMCAST_HOST"`
	Port         int           `yaml:"port" json:"port" env:"STREAMCAST_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors"`
}

// StreamConfig holds encoder process configuration
type StreamConfig struct {
	FFmpegPath      string        `yaml:"ffmpeg_path" json:"ffmpeg_path" env:"FFMPEG_PATH"`
	StatsInterval   time.Duration `yaml:"stats_interval" json:"stats_interval"`
	StopGracePeriod time.Duration `yaml:"stop_grace_period" json:"stop_grace_period"`
}

// ExtractorConfig holds source URL resolution configuration
type ExtractorConfig struct {
	BinaryPath string        `yaml:"binary_path" json:"binary_path" env:"YTDLP_PATH"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// RecordingsConfig holds recording storage configuration
type RecordingsConfig struct {
	Dir string `yaml:"dir" json:"dir" env:"STREAMCAST_RECORDINGS_DIR"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"STREAMCAST_DATABASE_PATH"`
	Host         string `yaml:"host" json:"host" env:"POSTGRES_HOST"`
	Port         int    `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	Username     string `yaml:"username" json:"username" env:"POSTGRES_USER"`
	Password     string `yaml:"password" json:"password" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"POSTGRES_DB"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Default returns a configuration with all default values set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			ReadTimeout: 30 * time.Second,
			// No write timeout: the websocket event channel holds
			// connections open indefinitely.
			WriteTimeout: 0,
			EnableCORS:   true,
		},
		Stream: StreamConfig{
			FFmpegPath:      "ffmpeg",
			StatsInterval:   time.Second,
			StopGracePeriod: 5 * time.Second,
		},
		Extractor: ExtractorConfig{
			BinaryPath: "yt-dlp",
			Timeout:    30 * time.Second,
		},
		Recordings: RecordingsConfig{
			Dir: "./recordings",
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			DatabasePath: "./data/streamcast.db",
			Host:         "localhost",
			Port:         5432,
			Username:     "streamcast",
			Database:     "streamcast",
		},
	}
}

// Load reads configuration from the given YAML file (optional), applies
// environment variable overrides, and installs the result as the active
// configuration. An empty path loads defaults plus environment overrides.
func Load(path string) error {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// Get returns the active configuration, loading defaults if Load was never called
func Get() *Config {
	mu.RLock()
	if current != nil {
		defer mu.RUnlock()
		return current
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		cfg := Default()
		applyEnvOverrides(cfg)
		current = cfg
	}
	return current
}

// Set replaces the active configuration (used by tests)
func Set(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Extractor.Timeout <= 0 {
		return fmt.Errorf("extractor timeout must be positive")
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Server.Host, "STREAMCAST_HOST")
	overrideInt(&cfg.Server.Port, "STREAMCAST_PORT")
	overrideString(&cfg.Stream.FFmpegPath, "FFMPEG_PATH")
	overrideString(&cfg.Extractor.BinaryPath, "YTDLP_PATH")
	overrideDuration(&cfg.Extractor.Timeout, "STREAMCAST_EXTRACT_TIMEOUT")
	overrideString(&cfg.Recordings.Dir, "STREAMCAST_RECORDINGS_DIR")
	overrideString(&cfg.Database.Type, "DATABASE_TYPE")
	overrideString(&cfg.Database.DatabasePath, "STREAMCAST_DATABASE_PATH")
	overrideString(&cfg.Database.Host, "POSTGRES_HOST")
	overrideInt(&cfg.Database.Port, "POSTGRES_PORT")
	overrideString(&cfg.Database.Username, "POSTGRES_USER")
	overrideString(&cfg.Database.Password, "POSTGRES_PASSWORD")
	overrideString(&cfg.Database.Database, "POSTGRES_DB")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

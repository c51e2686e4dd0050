package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures HTTP server and detector configuration.
type Server struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	// MaxBodyBytes bounds a single tool request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MaxConditions rejects systems with more distinct singularity
	// conditions than this. Zero disables the check.
	MaxConditions int `yaml:"max_conditions"`

	// Concurrency bounds how many systems a batch call analyses at once.
	Concurrency int `yaml:"concurrency"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Server {
	return Server{
		Addr:            ":8080",
		LogLevel:        "info",
		MaxBodyBytes:    1 << 20,
		MaxConditions:   20,
		Concurrency:     4,
		ShutdownTimeout: 10 * time.Second,
	}
}

// FromEnv builds a Server config from defaults and environment variables.
func FromEnv() (Server, error) {
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, cfg.Validate()
}

// Load reads defaults, then the YAML file at path (skipped when path is
// empty), then environment overrides.
func Load(path string) (Server, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Server{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Server{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Server) error {
	if v := os.Getenv("SINGULARITY_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SINGULARITY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SINGULARITY_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SINGULARITY_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}
	if v := os.Getenv("SINGULARITY_MAX_CONDITIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SINGULARITY_MAX_CONDITIONS: %w", err)
		}
		cfg.MaxConditions = n
	}
	if v := os.Getenv("SINGULARITY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SINGULARITY_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv("SINGULARITY_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SINGULARITY_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func (s Server) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("config: addr is empty")
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: max_body_bytes must be positive, got %d", s.MaxBodyBytes)
	}
	if s.MaxConditions < 0 {
		return fmt.Errorf("config: max_conditions must not be negative, got %d", s.MaxConditions)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be at least 1, got %d", s.Concurrency)
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values fall back to info;
// Validate reports them.
func (s Server) SlogLevel() slog.Level {
	l, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
}

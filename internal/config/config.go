// Package config loads cwclog settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cwclog/internal/classify"
)

// Config holds all settings read from CWCLOG_* environment variables.
type Config struct {
	LogsDir  string
	LogFile  string
	ImageDir string
	Agents   classify.Agents
	Logging  LoggingConfig
	Jobs     int
	PDFCmd   string
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	jobs, err := getEnvInt("CWCLOG_JOBS", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	defaults := classify.DefaultAgents()
	cfg := &Config{
		LogsDir:  getEnv("CWCLOG_LOGS_DIR", defaultLogsDir()),
		LogFile:  getEnv("CWCLOG_LOG_FILE", "log.txt"),
		ImageDir: getEnv("CWCLOG_IMAGE_DIR", "images"),
		Agents: classify.Agents{
			Dialogue:    getEnv("CWCLOG_DIALOGUE_AGENT", defaults.Dialogue),
			TextInput:   getEnv("CWCLOG_TEXT_AGENT", defaults.TextInput),
			PathDiagram: getEnv("CWCLOG_PATH_DIAGRAM_AGENT", defaults.PathDiagram),
		},
		Logging: LoggingConfig{
			Level:  getEnv("CWCLOG_LOG_LEVEL", "info"),
			Format: getEnv("CWCLOG_LOG_FORMAT", "text"),
		},
		Jobs:   jobs,
		PDFCmd: getEnv("CWCLOG_PDF_COMMAND", "wkhtmltopdf"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		LogsDir:  defaultLogsDir(),
		LogFile:  "log.txt",
		ImageDir: "images",
		Agents:   classify.DefaultAgents(),
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Jobs:     4,
		PDFCmd:   "wkhtmltopdf",
	}
}

func (c *Config) validate() error {
	if c.LogFile == "" || filepath.Base(c.LogFile) != c.LogFile {
		return fmt.Errorf("CWCLOG_LOG_FILE must be a plain file name, got %q", c.LogFile)
	}
	if c.ImageDir == "" {
		return errors.New("CWCLOG_IMAGE_DIR must not be empty")
	}
	if c.Agents.Dialogue == "" || c.Agents.TextInput == "" || c.Agents.PathDiagram == "" {
		return errors.New("agent identifiers must not be empty")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("CWCLOG_JOBS must be >= 1, got %d", c.Jobs)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("CWCLOG_LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func defaultLogsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cwc-logs"
	}
	return filepath.Join(home, "cwc-logs")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

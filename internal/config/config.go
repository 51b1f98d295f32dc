package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// LLM configures the chat-completion client used for classification.
	LLM LLMConfig `json:"llm"`

	// Mapper configures the background event-to-task association engine.
	Mapper MapperConfig `json:"mapper"`

	// Cleanup configures the screenshot retention job.
	Cleanup CleanupConfig `json:"cleanup"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// LLMConfig holds the chat-completion client settings. The API key may
// also come from the OPENAI_API_KEY environment variable, which takes
// precedence over the file.
type LLMConfig struct {
	Model                 string `json:"model"`
	APIKey                string `json:"api_key,omitempty"`
	BaseURL               string `json:"base_url,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// MapperConfig holds the association engine settings. Threshold and
// interval changes apply on the next cycle without a restart.
type MapperConfig struct {
	Enabled bool `json:"enabled"`

	// ProjectConfidenceThreshold gates task determination: below it the
	// event is skipped entirely. Comparison is >= (boundary passes).
	ProjectConfidenceThreshold float64 `json:"project_confidence_threshold"`

	// TaskConfidenceThreshold gates writing a positive task match.
	TaskConfidenceThreshold float64 `json:"task_confidence_threshold"`

	// BatchSize bounds how many unattempted events one cycle picks up.
	BatchSize int `json:"batch_size"`

	// CheckIntervalSeconds is the pause between cycles.
	CheckIntervalSeconds int `json:"check_interval_seconds"`
}

// CleanupConfig holds the screenshot retention settings.
type CleanupConfig struct {
	Enabled bool `json:"enabled"`

	// MaxScreenshots caps stored screenshots; the oldest beyond the cap
	// are removed.
	MaxScreenshots int `json:"max_screenshots"`

	// DeleteFileOnly removes image files but keeps rows (and their OCR
	// text) for history.
	DeleteFileOnly bool `json:"delete_file_only"`

	IntervalSeconds int `json:"interval_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:                 "gpt-4o-mini",
			RequestTimeoutSeconds: 60,
		},
		Mapper: MapperConfig{
			Enabled:                    true,
			ProjectConfidenceThreshold: 0.7,
			TaskConfidenceThreshold:    0.7,
			BatchSize:                  10,
			CheckIntervalSeconds:       60,
		},
		Cleanup: CleanupConfig{
			Enabled:         true,
			MaxScreenshots:  10000,
			DeleteFileOnly:  true,
			IntervalSeconds: 3600,
		},
	}
}

// Path returns the config file location under baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, "config.json")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist. File values overlay
// the defaults field by field.
func Load(baseDir string) (*Config, error) {
	return loadFile(Path(baseDir))
}

// loadFile loads configuration from a specific file path.
func loadFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	// Unmarshal over the defaults: absent keys keep their default value
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	m := c.Mapper
	if m.ProjectConfidenceThreshold < 0 || m.ProjectConfidenceThreshold > 1 {
		return fmt.Errorf("mapper.project_confidence_threshold must be in [0,1], got %v", m.ProjectConfidenceThreshold)
	}
	if m.TaskConfidenceThreshold < 0 || m.TaskConfidenceThreshold > 1 {
		return fmt.Errorf("mapper.task_confidence_threshold must be in [0,1], got %v", m.TaskConfidenceThreshold)
	}
	if m.BatchSize <= 0 {
		return fmt.Errorf("mapper.batch_size must be positive, got %d", m.BatchSize)
	}
	if m.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("mapper.check_interval_seconds must be positive, got %d", m.CheckIntervalSeconds)
	}
	if c.Cleanup.MaxScreenshots < 0 {
		return fmt.Errorf("cleanup.max_screenshots must not be negative, got %d", c.Cleanup.MaxScreenshots)
	}
	if c.Cleanup.IntervalSeconds <= 0 {
		return fmt.Errorf("cleanup.interval_seconds must be positive, got %d", c.Cleanup.IntervalSeconds)
	}
	return nil
}

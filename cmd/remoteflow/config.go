package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rendis/remoteflow/pkg/schema"
)

// Config holds all remoteflow configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath         string `json:"db_path" validate:"required"`
	LogLevel       string `json:"log_level" validate:"oneof=debug info warn error"`
	LogJSON        bool   `json:"log_json"`
	PruneSchedule  string `json:"prune_schedule" validate:"required"`
	PruneRetention string `json:"prune_retention" validate:"required"`
	PruneKeep      int    `json:"prune_keep" validate:"min=0"`
}

func defaultConfig() Config {
	return Config{
		DBPath:         filepath.Join(remoteflowDir(), "remoteflow.db"),
		LogLevel:       "info",
		PruneSchedule:  "@daily",
		PruneRetention: "720h",
		PruneKeep:      10,
	}
}

func remoteflowDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remoteflow"
	}
	return filepath.Join(home, ".remoteflow")
}

func settingsPath() string {
	return filepath.Join(remoteflowDir(), "settings.json")
}

func loadConfig() (Config, error) {
	return loadConfigFrom(settingsPath(), os.Getenv)
}

func loadConfigFrom(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Layer 3: env vars override.
	if v := getenv("REMOTEFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("REMOTEFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("REMOTEFLOW_LOG_JSON"); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}
	if v := getenv("REMOTEFLOW_PRUNE_SCHEDULE"); v != "" {
		cfg.PruneSchedule = v
	}
	if v := getenv("REMOTEFLOW_PRUNE_RETENTION"); v != "" {
		cfg.PruneRetention = v
	}
	if v := getenv("REMOTEFLOW_PRUNE_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PruneKeep = n
		}
	}

	return cfg, cfg.Validate()
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the retention parses as a duration.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "invalid config: %s", err.Error()).WithCause(err)
	}
	if _, err := c.Retention(); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "invalid prune_retention %q", c.PruneRetention).WithCause(err)
	}
	return nil
}

// Retention returns PruneRetention as a duration.
func (c Config) Retention() (time.Duration, error) {
	d, err := time.ParseDuration(c.PruneRetention)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	return d, nil
}

// DSN is the libSQL connection string for DBPath.
func (c Config) DSN() string {
	return "file:" + c.DBPath
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and ROLLCALL_ environment variables on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SnapshotPath, when set, is ingested at startup under SnapshotID.
	SnapshotPath string `koanf:"snapshot_path"`
	SnapshotID   string `koanf:"snapshot_id"`

	// MaxSnapshots bounds how many snapshots are kept in memory.
	MaxSnapshots int `koanf:"max_snapshots"`

	// WorkerCount sets the number of alignment warm-up workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the warm-up queue.
	QueueSize int `koanf:"queue_size"`

	// MaxUploadBytes caps POST /snapshots bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      LogFormatText,
		Addr:           ":9080",
		SnapshotID:     "default",
		MaxSnapshots:   16,
		WorkerCount:    2,
		QueueSize:      64,
		MaxUploadBytes: 32 << 20,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON:
		return fmt.Errorf("%w: log_format must be %q or %q, got %q", ErrInvalidConfig, LogFormatText, LogFormatJSON, c.LogFormat)
	case c.SnapshotPath != "" && strings.TrimSpace(c.SnapshotID) == "":
		return fmt.Errorf("%w: snapshot_id must be set when snapshot_path is", ErrInvalidConfig)
	case c.MaxSnapshots < 1:
		return fmt.Errorf("%w: max_snapshots must be positive, got %d", ErrInvalidConfig, c.MaxSnapshots)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("%w: max_upload_bytes must be positive, got %d", ErrInvalidConfig, c.MaxUploadBytes)
	}
	return nil
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and SPLITS_* env vars on top.
// - Command-line flags are applied by the caller after Load.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"

	"github.com/okian/splits/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Segments lists the split columns in race order.
	Segments []string `koanf:"segments"`

	// TotalKey names the overall time column.
	TotalKey string `koanf:"total_key"`

	// Lenient drops rows that cannot be parsed or patched instead of failing the file.
	Lenient bool `koanf:"lenient"`

	// Parallelism bounds concurrent chunks in the patch pass.
	Parallelism int `koanf:"parallelism" validate:"gte=1"`

	// Render chooses how durations are written to text outputs: seconds or clock.
	Render string `koanf:"render" validate:"oneof=seconds clock"`

	// OutputFormat is the default output: csv, xlsx, parquet or json.
	OutputFormat string `koanf:"output_format" validate:"oneof=csv xlsx parquet json"`

	// WorkerCount sets the number of watch-mode workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// DedupeSize bounds the set of already-seen file versions.
	DedupeSize int `koanf:"dedupe_size"`

	// ReportStoreSize bounds how many reports are retained for GET /reports.
	ReportStoreSize int `koanf:"report_store_size" validate:"gte=1"`

	// MaxReportLimit caps GET /reports?limit.
	MaxReportLimit int `koanf:"max_report_limit" validate:"gte=1"`

	// WatchDir enables watch mode when set; OutDir receives filled files.
	WatchDir string `koanf:"watch_dir"`
	OutDir   string `koanf:"out_dir" validate:"required_with=WatchDir"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Segments:        model.DefaultSegments(),
		TotalKey:        model.DefaultTotalKey,
		Lenient:         false,
		Parallelism:     runtime.NumCPU(),
		Render:          "seconds",
		OutputFormat:    "csv",
		WorkerCount:     2,
		QueueSize:       1024,
		DedupeSize:      10_000,
		ReportStoreSize: 256,
		MaxReportLimit:  100,
	}
}

// Layout returns the configured segment layout.
func (c *Config) Layout() model.Layout {
	return model.Layout{Segments: c.Segments, TotalKey: c.TotalKey}
}

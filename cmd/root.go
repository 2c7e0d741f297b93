package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/splits/internal/app"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/config"
	"github.com/okian/splits/pkg/logger"
)

// newRootCmd builds the command tree. Commands are constructed per call so
// tests get fresh flag state.
func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:   "splits",
		Short: "Estimate unrecorded race splits",
		Long: `splits fills zero-valued segment times in race results.

Each athlete's unaccounted time (gun time minus recorded legs) is shared
across their missing legs in proportion to how long those legs take the
whole field on average.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	global := func(cfg *config.Config) {
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
	}

	root.AddCommand(
		newFillCmd(global),
		newServeCmd(global),
		newGenerateCmd(global),
	)
	return root
}

// loadConfig layers flags over config.Load, validates the result and
// initializes the global logger.
func loadConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newService builds a Service from cfg.
func newService(cfg *config.Config) (*app.Service, error) {
	render, err := sink.ParseRender(cfg.Render)
	if err != nil {
		return nil, err
	}
	format, err := sink.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(logger.Get()),
		app.WithLayout(cfg.Layout()),
		app.WithLenient(cfg.Lenient),
		app.WithParallelism(cfg.Parallelism),
		app.WithRender(render),
		app.WithOutputFormat(format),
		app.WithOutDir(cfg.OutDir),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithReportStoreSize(cfg.ReportStoreSize),
	), nil
}

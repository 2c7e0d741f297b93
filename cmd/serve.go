package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/splits/internal/adapters/http/api"
	"github.com/okian/splits/internal/adapters/http/swagger"
	"github.com/okian/splits/internal/adapters/watch"
	"github.com/okian/splits/internal/config"
	"github.com/okian/splits/pkg/logger"
	"github.com/okian/splits/pkg/metrics"
)

// HTTP server timeouts.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type serveFlags struct {
	addr    string
	watch   string
	outDir  string
	lenient bool
}

func newServeCmd(global func(*config.Config)) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and optional watch-mode pipeline",
		Long: `serve exposes POST /estimate, GET /reports, /healthz and /stats.

With --watch, new or changed CSV/XLSX files in the directory are filled
in the background and written to --out-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, global, f.apply(cmd))
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address")
	fs.StringVar(&f.watch, "watch", "", "directory to watch for result files")
	fs.StringVar(&f.outDir, "out-dir", "", "directory for filled files")
	fs.BoolVar(&f.lenient, "lenient", false, "drop bad rows instead of failing the file")
	return cmd
}

func (f *serveFlags) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		fs := cmd.Flags()
		if fs.Changed("addr") {
			cfg.Addr = f.addr
		}
		if fs.Changed("watch") {
			cfg.WatchDir = f.watch
		}
		if fs.Changed("out-dir") {
			cfg.OutDir = f.outDir
		}
		if fs.Changed("lenient") {
			cfg.Lenient = f.lenient
		}
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Named("serve")
	metrics.RegisterRuntimeCollectors()

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	watchErr := make(chan error, 1)
	if cfg.WatchDir != "" {
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		w := watch.New(cfg.WatchDir, svc, watch.WithLogger(logger.Named("watch")), watch.WithInitialScan(true))
		go func() { watchErr <- w.Run(ctx) }()
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithMaxReportLimit(cfg.MaxReportLimit)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening",
			logger.String("addr", cfg.Addr),
			logger.Strings("segments", cfg.Segments),
			logger.String("total", cfg.TotalKey),
			logger.String("watch", cfg.WatchDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-watchErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("watcher: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http server shutdown", logger.Error(err))
	}
	stop()
	log.Info(shutdownCtx, "shutdown complete")
	return runErr
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/okian/splits/internal/app"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/adapters/source"
	"github.com/okian/splits/internal/config"
	"github.com/okian/splits/pkg/logger"
)

type fillFlags struct {
	segments    []string
	total       string
	out         string
	format      string
	render      string
	lenient     bool
	parallelism int
}

func newFillCmd(global func(*config.Config)) *cobra.Command {
	var f fillFlags

	cmd := &cobra.Command{
		Use:   "fill <path>",
		Short: "Estimate missing splits in a CSV or XLSX file",
		Long: `fill reads a result sheet, estimates every zero-valued segment and
writes the patched table to --out, or to stdout when --out is empty.

The output format follows --format, then the --out extension, then the
configured default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, f.apply(cmd))
			if err != nil {
				return err
			}
			return runFill(cmd, cfg, f, args[0])
		},
	}

	fs := cmd.Flags()
	fs.StringSliceVar(&f.segments, "segments", nil, "segment columns in race order (comma-separated)")
	fs.StringVar(&f.total, "total", "", "column holding the overall time")
	fs.StringVarP(&f.out, "out", "o", "", "output path (default stdout)")
	fs.StringVarP(&f.format, "format", "f", "", "output format: csv, xlsx, parquet or json")
	fs.StringVar(&f.render, "render", "", "duration rendering: seconds or clock")
	fs.BoolVar(&f.lenient, "lenient", false, "drop bad rows instead of failing the file")
	fs.IntVar(&f.parallelism, "parallelism", 0, "concurrent chunks in the patch pass")
	return cmd
}

// apply copies changed flags onto the loaded config.
func (f *fillFlags) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		fs := cmd.Flags()
		if fs.Changed("segments") {
			cfg.Segments = trimAll(f.segments)
		}
		if fs.Changed("total") {
			cfg.TotalKey = strings.TrimSpace(f.total)
		}
		if fs.Changed("render") {
			cfg.Render = f.render
		}
		if fs.Changed("lenient") {
			cfg.Lenient = f.lenient
		}
		if fs.Changed("parallelism") {
			cfg.Parallelism = f.parallelism
		}
		if format := outputFormat(*f); format != "" {
			cfg.OutputFormat = format
		}
	}
}

// outputFormat picks --format, else the --out extension.
func outputFormat(f fillFlags) string {
	if f.format != "" {
		return strings.ToLower(f.format)
	}
	if f.out != "" {
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.out)), "."); ext != "" {
			return ext
		}
	}
	return ""
}

func runFill(cmd *cobra.Command, cfg *config.Config, f fillFlags, path string) error {
	ctx := cmd.Context()
	log := logger.Named("fill")

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	table, err := source.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	out, err := svc.Process(ctx, app.Request{Source: path, Table: table, Lenient: cfg.Lenient})
	if err != nil {
		return fmt.Errorf("fill %s: %w", path, err)
	}

	for _, rej := range out.Report.Rejected {
		log.Warn(ctx, "row rejected", logger.Int("index", rej.Index), logger.String("reason", rej.Reason))
	}

	if err := writeOutput(cmd.OutOrStdout(), f.out, func(w io.Writer) error {
		return sink.Write(w, out.Table, svc.OutputFormat(), sink.WithRender(svc.Render()))
	}); err != nil {
		return err
	}

	log.Info(ctx, "fill complete",
		logger.String("report_id", out.Report.ID),
		logger.Int("rows", out.Report.Rows),
		logger.Int("patched", out.Report.Patched),
		logger.Int("estimated", out.Report.Estimated),
		logger.Int("rejected", len(out.Report.Rejected)),
	)
	return nil
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/config"
	"github.com/okian/splits/internal/samplegen"
	"github.com/okian/splits/pkg/logger"
)

type generateFlags struct {
	athletes int
	missing  float64
	slack    int
	seed     int64
	out      string
}

func newGenerateCmd(global func(*config.Config)) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic cohort with blanked splits as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, global)
			if err != nil {
				return err
			}
			table := samplegen.Generate(samplegen.Config{
				Athletes:    f.athletes,
				Layout:      cfg.Layout(),
				MissingRate: f.missing,
				SlackMax:    f.slack,
				Seed:        f.seed,
			})
			if err := writeOutput(cmd.OutOrStdout(), f.out, func(w io.Writer) error {
				return sink.WriteCSV(w, table, sink.RenderSeconds)
			}); err != nil {
				return err
			}
			logger.Named("generate").Debug(cmd.Context(), "cohort generated",
				logger.Int("athletes", len(table.Rows)),
				logger.Any("seed", f.seed),
			)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&f.athletes, "athletes", "n", 100, "number of result rows")
	fs.Float64Var(&f.missing, "missing", 0.1, "probability that a single split is blanked")
	fs.IntVar(&f.slack, "slack", 30, "upper bound on seconds of gun time outside all splits")
	fs.Int64Var(&f.seed, "seed", 42, "random seed")
	fs.StringVarP(&f.out, "out", "o", "", "output path (default stdout)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embedsound/fsdbench/internal/naming"
	"github.com/embedsound/fsdbench/internal/pipeline"
)

// noNormalizationToken is the literal positional token that disables
// normalization; any other fourth-of-five argument leaves it enabled.
const noNormalizationToken = "--no-normalization"

func runCmd() *cobra.Command {
	var failFast bool
	cmd := &cobra.Command{
		Use:   "run [<model> <aggregation> <N_PCA|-1> [<norm-token>] <search>]",
		Short: "Run one configuration through prepare, search and evaluate",
		Long: `Runs the three experiment stages in sequence for one configuration.

Pass -1 as N_PCA to use the model's default PCA size. Pass the literal token
--no-normalization as the fourth of five arguments to disable normalization.
With no arguments, prints this usage and exits 0.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			parsed, err := parseRunArgs(args)
			if err != nil {
				return err
			}
			pca, err := naming.ResolvePCA(parsed.Model, parsed.PCA, cfg.PCATable)
			if err != nil {
				return err
			}

			p, cleanup := newPipeline(cfg)
			defer cleanup()

			return exitCode(p.Run(cmd.Context(), pipeline.RunSpec{
				Model:       parsed.Model,
				Aggregation: parsed.Aggregation,
				PCA:         pca,
				Normalize:   parsed.Normalize,
				Search:      parsed.Search,
				FailFast:    failFast,
			}))
		},
	}
	// Positional tokens like -1 and --no-normalization must survive parsing.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first stage that exits nonzero")
	return cmd
}

type runArgs struct {
	Model       string
	Aggregation string
	PCA         string
	Normalize   bool
	Search      string
}

// parseRunArgs accepts the 4- and 5-argument positional forms. The
// normalization token only exists in the 5-argument form.
func parseRunArgs(args []string) (runArgs, error) {
	switch len(args) {
	case 4:
		return runArgs{
			Model:       args[0],
			Aggregation: args[1],
			PCA:         args[2],
			Normalize:   true,
			Search:      args[3],
		}, nil
	case 5:
		return runArgs{
			Model:       args[0],
			Aggregation: args[1],
			PCA:         args[2],
			Normalize:   args[3] != noNormalizationToken,
			Search:      args[4],
		}, nil
	default:
		return runArgs{}, fmt.Errorf("expected 4 or 5 positional arguments, got %d", len(args))
	}
}

package main

import (
	"github.com/spf13/cobra"
)

func variantCmd() *cobra.Command {
	var (
		model  string
		search string
	)
	cmd := &cobra.Command{
		Use:   "variant <suffix>",
		Short: "Run search and evaluation for one already-prepared variant",
		Long: `Runs the similarity search and evaluation stages over a prepared variant
directory, identified by its configuration suffix (for example
Agg_mean-PCA_128-Norm_True). The suffix is used as-is to build paths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if search == "" {
				search = cfg.DefaultSearch
			}

			p, cleanup := newPipeline(cfg)
			defer cleanup()

			return exitCode(p.Variant(cmd.Context(), model, args[0], search))
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model name the variant belongs to")
	cmd.Flags().StringVar(&search, "search", "", "Search type (default from config)")
	cmd.MarkFlagRequired("model")
	return cmd
}

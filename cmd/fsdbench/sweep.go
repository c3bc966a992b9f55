package main

import (
	"github.com/spf13/cobra"

	"github.com/embedsound/fsdbench/internal/discover"
	"github.com/embedsound/fsdbench/internal/logger"
	"github.com/embedsound/fsdbench/internal/naming"
)

func sweepCmd() *cobra.Command {
	var (
		model  string
		search string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run search and evaluation for every prepared variant of a model, then plot",
		Long: `Enumerates the prepared variant directories of a model under the embeddings
directory, runs the similarity search and evaluation stages for each, and
finally invokes the comparison-plot program once over the whole model.

A failing variant does not halt the sweep; the sweep's exit status is the
plot invocation's exit status. With --watch the sweep stays alive after the
initial pass and picks up newly created variant directories until
interrupted.`,
		Args: cobra.NoArgs,
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

			embDir := naming.EmbeddingsDir(cfg.DataRoot, cfg.Dataset, "")
			suffixes, err := discover.Variants(embDir, model)
			if err != nil {
				return err
			}
			if len(suffixes) == 0 {
				logger.Warn("no prepared variants found", "model", model, "dir", embDir)
			}
			for _, suffix := range suffixes {
				if code := p.Variant(cmd.Context(), model, suffix, search); code != 0 {
					logger.Warn("variant pipeline failed, continuing",
						"model", model, "suffix", suffix, "exit_code", code)
				}
			}

			plotCode := p.Plot(cmd.Context(), model)

			if watch {
				w := discover.NewWatcher(embDir, model)
				logger.Info("watching for new variants", "dir", embDir, "model", model)
				err := w.Watch(cmd.Context(), func(suffix string) {
					if code := p.Variant(cmd.Context(), model, suffix, search); code != 0 {
						logger.Warn("variant pipeline failed, continuing",
							"model", model, "suffix", suffix, "exit_code", code)
					}
				})
				if err != nil {
					return err
				}
			}

			return exitCode(plotCode)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model name whose variants to sweep")
	cmd.Flags().StringVar(&search, "search", "", "Search type (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and pick up newly prepared variants")
	cmd.MarkFlagRequired("model")
	return cmd
}

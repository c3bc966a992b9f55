package main

import (
	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <model-config.json>...",
		Short: "Run the external embedding extractor for model configurations",
		Long: `Invokes the embedding-extractor program once per model configuration file,
writing raw embeddings under the dataset's embeddings root. Extractions run
in sequence; a failing one does not stop the rest, and the last invocation's
exit status becomes the command's.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, cleanup := newPipeline(cfg)
			defer cleanup()

			code := 0
			for _, configFile := range args {
				code = p.Extract(cmd.Context(), configFile)
			}
			return exitCode(code)
		},
	}
}

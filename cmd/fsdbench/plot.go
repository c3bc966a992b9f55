package main

import (
	"github.com/spf13/cobra"
)

func plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot <model>",
		Short: "Plot evaluation comparisons across a model's variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, cleanup := newPipeline(cfg)
			defer cleanup()

			return exitCode(p.Plot(cmd.Context(), args[0]))
		},
	}
}

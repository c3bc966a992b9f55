package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/embedsound/fsdbench/internal/ledger"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent harness runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			led, err := ledger.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open run ledger %s: %w", cfg.History.Path, err)
			}
			defer led.Close()

			runs, err := led.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			for _, r := range runs {
				target := r.Model
				if r.Suffix != "" {
					target += "-" + r.Suffix
				}
				status := "running"
				if r.ExitCode != nil {
					status = fmt.Sprintf("exit %d", *r.ExitCode)
				}
				fmt.Printf("%s  %-8s %-10s %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, status, target)
				if len(r.Stages) > 0 {
					var parts []string
					for _, s := range r.Stages {
						parts = append(parts, fmt.Sprintf("%s:%d (%s)", s.Name, s.ExitCode, s.Duration.Round(time.Millisecond)))
					}
					fmt.Printf("    %s\n", strings.Join(parts, "  "))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

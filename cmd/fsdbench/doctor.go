package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/embedsound/fsdbench/internal/ledger"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the Python environment, stage scripts and data layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("fsdbench doctor")
			fmt.Println()

			fmt.Println("Python:")
			if cfg.Venv != "" {
				bin := cfg.PythonBin()
				if _, err := os.Stat(bin); err != nil {
					fmt.Printf("  %-12s %s (missing)\n", "venv", bin)
				} else {
					fmt.Printf("  %-12s %s\n", "venv", bin)
				}
			} else {
				path, err := exec.LookPath(cfg.Python)
				if err != nil {
					fmt.Printf("  %-12s %s not found on PATH\n", "interpreter", cfg.Python)
				} else {
					fmt.Printf("  %-12s %s\n", "interpreter", path)
				}
			}
			fmt.Println()

			fmt.Println("Stage scripts:")
			scripts := []struct {
				name string
				path string
			}{
				{"prepare", cfg.Scripts.Prepare},
				{"search", cfg.Scripts.Search},
				{"evaluate", cfg.Scripts.Evaluate},
				{"plot", cfg.Scripts.Plot},
				{"extract", cfg.Scripts.Extract},
			}
			for _, s := range scripts {
				if _, err := os.Stat(s.path); err != nil {
					fmt.Printf("  %-12s %s (missing)\n", s.name, s.path)
				} else {
					fmt.Printf("  %-12s %s\n", s.name, s.path)
				}
			}
			fmt.Println()

			fmt.Println("Data:")
			dirs := []string{
				filepath.Join(cfg.DataRoot, "embeddings", cfg.Dataset),
				filepath.Join(cfg.DataRoot, "similarity_results", cfg.Dataset),
				filepath.Join(cfg.DataRoot, "evaluation_results", cfg.Dataset),
			}
			for _, d := range dirs {
				if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
					fmt.Printf("  %-60s missing\n", d)
				} else {
					fmt.Printf("  %-60s present\n", d)
				}
			}
			fmt.Println()

			fmt.Println("Ledger:")
			if led, err := ledger.Open(cfg.History.Path); err != nil {
				fmt.Printf("  %-60s error: %v\n", cfg.History.Path, err)
			} else {
				led.Close()
				fmt.Printf("  %-60s ok\n", cfg.History.Path)
			}
			fmt.Println()

			fmt.Println("Config:")
			fmt.Printf("  data_root:      %s\n", cfg.DataRoot)
			fmt.Printf("  dataset:        %s\n", cfg.Dataset)
			fmt.Printf("  default_search: %s\n", cfg.DefaultSearch)

			return nil
		},
	}
}

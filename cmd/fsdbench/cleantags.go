package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/embedsound/fsdbench/internal/tags"
)

func cleanTagsCmd() *cobra.Command {
	var (
		auto      bool
		exportDir string
	)
	cmd := &cobra.Command{
		Use:   "clean-tags <metadata.json>",
		Short: "Merge near-duplicate tag spellings in clip metadata",
		Long: `Collects the unique tags of a clip metadata file, finds pairs one edit apart,
and groups them. On a terminal each pair is confirmed interactively; --auto
merges every pair and picks the most frequent spelling (ties to the
lexicographically smallest). Writes the rewritten metadata, the groups, and
the spelling map to the export directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			if !auto && !interactive {
				return fmt.Errorf("stdin is not a terminal; re-run with --auto")
			}

			md, err := tags.LoadMetadata(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d clip metadata loaded.\n", len(md))

			unique, err := md.UniqueTags()
			if err != nil {
				return err
			}
			fmt.Printf("%d unique tags found.\n", len(unique))

			candidates := tags.Cleanable(unique)
			fmt.Printf("%d tags left after dropping short and number tags.\n", len(candidates))

			decide := func(a, b string) bool { return true }
			if !auto {
				reader := bufio.NewReader(os.Stdin)
				decide = func(a, b string) bool {
					fmt.Printf("|%s|%s| Merge? [y/N]: ", a, b)
					line, err := reader.ReadString('\n')
					if err != nil {
						return false
					}
					return strings.TrimSpace(line) == "y"
				}
			}

			groups := tags.FindGroups(candidates, decide)
			fmt.Printf("%d tag groups formed.\n", len(groups))

			freq, err := md.TagFrequency()
			if err != nil {
				return err
			}
			mapping := tags.Mapping(groups, freq)
			changed, err := md.Rewrite(mapping)
			if err != nil {
				return err
			}
			fmt.Printf("%d clips rewritten (%d spellings merged).\n", changed, len(mapping))

			if err := os.MkdirAll(exportDir, 0755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
			if err := tags.ExportGroups(filepath.Join(exportDir, "groups.txt"), groups); err != nil {
				return err
			}
			if err := tags.ExportMapping(filepath.Join(exportDir, "changed.json"), mapping); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), ".json")
			cleaned := filepath.Join(exportDir, base+".cleaned.json")
			if err := md.Save(cleaned); err != nil {
				return err
			}
			fmt.Printf("Exported to %s.\n", exportDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "Merge every distance-1 pair without prompting")
	cmd.Flags().StringVar(&exportDir, "export-dir", "clean_tags", "Directory for the cleaned metadata and reports")
	return cmd
}

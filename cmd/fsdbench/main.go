package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/embedsound/fsdbench/internal/config"
	"github.com/embedsound/fsdbench/internal/ledger"
	"github.com/embedsound/fsdbench/internal/logger"
	"github.com/embedsound/fsdbench/internal/pipeline"
	"github.com/embedsound/fsdbench/internal/stage"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagNoHistory bool
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "fsdbench",
		Short:         "fsdbench — audio-embedding retrieval experiment harness",
		Long:          "Sequences the external Python stages of an audio-embedding retrieval experiment:\npreparing precomputed embeddings, nearest-neighbor similarity search, retrieval\nscoring, and comparison plots across experiment configurations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default fsdbench.yaml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this invocation in the run ledger")

	root.AddCommand(
		runCmd(),
		sweepCmd(),
		variantCmd(),
		plotCmd(),
		extractCmd(),
		cleanTagsCmd(),
		historyCmd(),
		doctorCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, "fsdbench:", err)
		return 1
	}
	return 0
}

// exitError carries an external program's exit status out through cobra
// without printing anything; the stages already reported themselves.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// newPipeline builds the stage pipeline, attaching the run ledger best
// effort: a broken ledger degrades to a warning, never a failed run.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, func()) {
	runner := stage.NewRunner(cfg.PythonBin())

	var rec pipeline.Recorder
	cleanup := func() {}
	if cfg.HistoryEnabled() && !flagNoHistory {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0755); err != nil {
			logger.Warn("create ledger dir", "error", err)
		} else if led, err := ledger.Open(cfg.History.Path); err != nil {
			logger.Warn("open run ledger", "path", cfg.History.Path, "error", err)
		} else {
			rec = led
			cleanup = func() { led.Close() }
		}
	}
	return pipeline.New(cfg, runner, rec), cleanup
}

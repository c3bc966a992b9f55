// Package pipeline sequences the external experiment stages. Stages run
// strictly one after another; by default a stage's exit status is recorded
// but never aborts the sequence, and the final stage's status becomes the
// pipeline's status.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/embedsound/fsdbench/internal/config"
	"github.com/embedsound/fsdbench/internal/naming"
	"github.com/embedsound/fsdbench/internal/stage"
)

// Recorder persists run history. *ledger.Ledger satisfies it; a nil Recorder
// disables recording.
type Recorder interface {
	StartRun(kind, model, suffix, search string) (string, error)
	AddStage(runID string, seq int, name, command string, d time.Duration, exitCode int) error
	FinishRun(id string, exitCode int) error
}

type Pipeline struct {
	Cfg    *config.Config
	Runner *stage.Runner
	Rec    Recorder
}

func New(cfg *config.Config, runner *stage.Runner, rec Recorder) *Pipeline {
	return &Pipeline{Cfg: cfg, Runner: runner, Rec: rec}
}

// RunSpec is one fully-resolved experiment configuration.
type RunSpec struct {
	Model       string
	Aggregation string
	PCA         string // resolved width, carried verbatim into the suffix
	Normalize   bool
	Search      string
	FailFast    bool
}

// Suffix reports the variant directory suffix this configuration produces.
func (rs RunSpec) Suffix() string {
	return naming.Suffix(rs.Aggregation, rs.PCA, rs.Normalize)
}

// Run performs the full inner-driver sequence: prepare, search, evaluate.
// The returned code follows the exit-status contract described above.
func (p *Pipeline) Run(ctx context.Context, rs RunSpec) int {
	cfg := p.Cfg
	suffix := rs.Suffix()
	rawDir := naming.EmbeddingsDir(cfg.DataRoot, cfg.Dataset, rs.Model)
	prepared := naming.VariantDir(cfg.DataRoot, cfg.Dataset, rs.Model, suffix)
	simDir := naming.SimilarityDir(cfg.DataRoot, cfg.Dataset, rs.Model, suffix)
	simResults := naming.SimilarityResultsPath(cfg.DataRoot, cfg.Dataset, rs.Model, suffix, rs.Search)
	evalDir := naming.EvaluationDir(cfg.DataRoot, cfg.Dataset, rs.Model, suffix)

	prepArgs := []string{rawDir, "-a", rs.Aggregation, "-N", rs.PCA, "--output-dir", prepared}
	if !rs.Normalize {
		prepArgs = append(prepArgs, "--no-normalization")
	}

	stages := []stage.Stage{
		{Name: "prepare", Script: cfg.Scripts.Prepare, Args: prepArgs},
		{Name: "search", Script: cfg.Scripts.Search, Args: []string{prepared, "-s", rs.Search, "--output-dir", simDir}},
		{Name: "evaluate", Script: cfg.Scripts.Evaluate, Args: []string{simResults, "--output-dir", evalDir}},
	}
	return p.runStages(ctx, "run", rs.Model, suffix, rs.Search, stages, rs.FailFast)
}

// Variant performs the per-variant pipeline the sweep drives: similarity
// search and evaluation over an already-prepared variant directory. The
// suffix is an opaque string recovered from the directory name.
func (p *Pipeline) Variant(ctx context.Context, model, suffix, search string) int {
	cfg := p.Cfg
	prepared := naming.VariantDir(cfg.DataRoot, cfg.Dataset, model, suffix)
	simDir := naming.SimilarityDir(cfg.DataRoot, cfg.Dataset, model, suffix)
	simResults := naming.SimilarityResultsPath(cfg.DataRoot, cfg.Dataset, model, suffix, search)
	evalDir := naming.EvaluationDir(cfg.DataRoot, cfg.Dataset, model, suffix)

	stages := []stage.Stage{
		{Name: "search", Script: cfg.Scripts.Search, Args: []string{prepared, "-s", search, "--output-dir", simDir}},
		{Name: "evaluate", Script: cfg.Scripts.Evaluate, Args: []string{simResults, "--output-dir", evalDir}},
	}
	return p.runStages(ctx, "variant", model, suffix, search, stages, false)
}

// Plot invokes the comparison-plot program once for a model.
func (p *Pipeline) Plot(ctx context.Context, model string) int {
	args := []string{model, "--dataset", p.Cfg.Dataset}
	if p.Cfg.FiguresDir != "" {
		args = append(args, "--save-dir", p.Cfg.FiguresDir)
	}
	stages := []stage.Stage{{Name: "plot", Script: p.Cfg.Scripts.Plot, Args: args}}
	return p.runStages(ctx, "plot", model, "", "", stages, false)
}

// Extract orchestrates the external embedding extractor for one model
// configuration file, writing under the dataset's embeddings root.
func (p *Pipeline) Extract(ctx context.Context, configFile string) int {
	outRoot := naming.EmbeddingsDir(p.Cfg.DataRoot, p.Cfg.Dataset, "")
	stages := []stage.Stage{{
		Name:   "extract",
		Script: p.Cfg.Scripts.Extract,
		Args:   []string{"-c", configFile, "-o", outRoot},
	}}
	return p.runStages(ctx, "extract", configFile, "", "", stages, false)
}

func (p *Pipeline) runStages(ctx context.Context, kind, model, suffix, search string, stages []stage.Stage, failFast bool) int {
	var runID string
	if p.Rec != nil {
		id, err := p.Rec.StartRun(kind, model, suffix, search)
		if err != nil {
			slog.Warn("ledger unavailable, continuing without history", "error", err)
		} else {
			runID = id
		}
	}

	final := 0
	for i, s := range stages {
		res := p.Runner.Run(ctx, s)
		slog.Info("stage finished",
			"stage", s.Name, "model", model, "suffix", suffix, "search", search,
			"exit_code", res.ExitCode, "duration", res.Duration.Round(time.Millisecond))
		if runID != "" {
			if err := p.Rec.AddStage(runID, i+1, s.Name, res.Command, res.Duration, res.ExitCode); err != nil {
				slog.Warn("record stage", "stage", s.Name, "error", err)
			}
		}
		final = res.ExitCode
		if failFast && res.ExitCode != 0 {
			break
		}
	}

	if runID != "" {
		if err := p.Rec.FinishRun(runID, final); err != nil {
			slog.Warn("finish run record", "error", err)
		}
	}
	return final
}

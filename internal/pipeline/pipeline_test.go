package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/embedsound/fsdbench/internal/config"
	"github.com/embedsound/fsdbench/internal/stage"
)

// testHarness wires a pipeline to /bin/sh fake stage scripts that append
// their name and arguments to a log file, so tests can assert on ordering
// and argument construction without a Python environment.
func testHarness(t *testing.T, prepareExit, searchExit, evalExit int) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "invocations.log")
	t.Setenv("STAGE_LOG", logPath)

	write := func(name string, exit int) string {
		path := filepath.Join(dir, name)
		body := "#!/bin/sh\necho \"" + strings.TrimSuffix(name, ".sh") + " $@\" >> \"$STAGE_LOG\"\nexit " + strconv.Itoa(exit) + "\n"
		if err := os.WriteFile(path, []byte(body), 0755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	cfg := config.Default()
	cfg.DataRoot = "data"
	cfg.Scripts.Prepare = write("prepare.sh", prepareExit)
	cfg.Scripts.Search = write("search.sh", searchExit)
	cfg.Scripts.Evaluate = write("evaluate.sh", evalExit)
	cfg.Scripts.Plot = write("plot.sh", 0)
	cfg.Scripts.Extract = write("extract.sh", 0)

	var out bytes.Buffer
	runner := &stage.Runner{Python: "/bin/sh", Stdout: &out, Stderr: &out}
	return New(cfg, runner, nil), logPath
}

func invocations(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read invocation log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunStageOrderAndArgs(t *testing.T) {
	p, logPath := testHarness(t, 0, 0, 0)

	code := p.Run(context.Background(), RunSpec{
		Model:       "fsd-sinet-vgg42-aps-1",
		Aggregation: "mean",
		PCA:         "512",
		Normalize:   true,
		Search:      "nn",
	})
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}

	lines := invocations(t, logPath)
	if len(lines) != 3 {
		t.Fatalf("got %d invocations, want 3: %v", len(lines), lines)
	}

	const variant = "fsd-sinet-vgg42-aps-1-Agg_mean-PCA_512-Norm_True"
	wantPrepare := "prepare " + filepath.Join("data", "embeddings", "FSD50K.eval_audio", "fsd-sinet-vgg42-aps-1") +
		" -a mean -N 512 --output-dir " + filepath.Join("data", "embeddings", "FSD50K.eval_audio", variant)
	wantSearch := "search " + filepath.Join("data", "embeddings", "FSD50K.eval_audio", variant) +
		" -s nn --output-dir " + filepath.Join("data", "similarity_results", "FSD50K.eval_audio", variant)
	wantEval := "evaluate " + filepath.Join("data", "similarity_results", "FSD50K.eval_audio", variant, "nn", "similarity_results.json") +
		" --output-dir " + filepath.Join("data", "evaluation_results", "FSD50K.eval_audio", variant)

	for i, want := range []string{wantPrepare, wantSearch, wantEval} {
		if lines[i] != want {
			t.Errorf("stage %d:\n got %q\nwant %q", i, lines[i], want)
		}
	}
}

func TestRunNoNormalizationFlag(t *testing.T) {
	p, logPath := testHarness(t, 0, 0, 0)

	p.Run(context.Background(), RunSpec{
		Model:       "m",
		Aggregation: "mean",
		PCA:         "128",
		Normalize:   false,
		Search:      "nn",
	})

	lines := invocations(t, logPath)
	if !strings.HasSuffix(lines[0], "--no-normalization") {
		t.Errorf("prepare args missing --no-normalization: %q", lines[0])
	}
	if !strings.Contains(lines[0], "Norm_False") {
		t.Errorf("prepare output dir missing Norm_False: %q", lines[0])
	}
}

func TestRunBestEffortContinuation(t *testing.T) {
	// prepare fails, but search and evaluate still run; the final stage's
	// status (0) is the pipeline status.
	p, logPath := testHarness(t, 5, 0, 0)

	code := p.Run(context.Background(), RunSpec{
		Model: "m", Aggregation: "mean", PCA: "128", Normalize: true, Search: "nn",
	})
	if code != 0 {
		t.Errorf("exit = %d, want 0 (final stage's status)", code)
	}
	if got := len(invocations(t, logPath)); got != 3 {
		t.Errorf("got %d invocations, want 3", got)
	}
}

func TestRunFinalStatusPropagates(t *testing.T) {
	p, _ := testHarness(t, 0, 0, 4)

	code := p.Run(context.Background(), RunSpec{
		Model: "m", Aggregation: "mean", PCA: "128", Normalize: true, Search: "nn",
	})
	if code != 4 {
		t.Errorf("exit = %d, want 4", code)
	}
}

func TestRunFailFast(t *testing.T) {
	p, logPath := testHarness(t, 5, 0, 0)

	code := p.Run(context.Background(), RunSpec{
		Model: "m", Aggregation: "mean", PCA: "128", Normalize: true, Search: "nn",
		FailFast: true,
	})
	if code != 5 {
		t.Errorf("exit = %d, want 5", code)
	}
	if got := len(invocations(t, logPath)); got != 1 {
		t.Errorf("got %d invocations, want 1 (stopped after prepare)", got)
	}
}

func TestVariantRunsSearchAndEvaluate(t *testing.T) {
	p, logPath := testHarness(t, 0, 0, 0)

	code := p.Variant(context.Background(), "audioset-vggish-3", "Agg_mean-PCA_128-Norm_True", "nn")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}

	lines := invocations(t, logPath)
	if len(lines) != 2 {
		t.Fatalf("got %d invocations, want 2: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "search ") || !strings.HasPrefix(lines[1], "evaluate ") {
		t.Errorf("stage order wrong: %v", lines)
	}
	if !strings.Contains(lines[0], "audioset-vggish-3-Agg_mean-PCA_128-Norm_True") {
		t.Errorf("variant dir not derived from suffix: %q", lines[0])
	}
}

func TestPlotArgs(t *testing.T) {
	p, logPath := testHarness(t, 0, 0, 0)
	p.Cfg.FiguresDir = "figures"

	code := p.Plot(context.Background(), "fsd-sinet-vgg42-aps-1")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	lines := invocations(t, logPath)
	want := "plot fsd-sinet-vgg42-aps-1 --dataset FSD50K.eval_audio --save-dir figures"
	if lines[0] != want {
		t.Errorf("plot invocation = %q, want %q", lines[0], want)
	}
}

func TestExtractArgs(t *testing.T) {
	p, logPath := testHarness(t, 0, 0, 0)

	code := p.Extract(context.Background(), "models/fsd-sinet-vgg42-aps-1.json")
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	lines := invocations(t, logPath)
	want := "extract -c models/fsd-sinet-vgg42-aps-1.json -o " +
		filepath.Join("data", "embeddings", "FSD50K.eval_audio")
	if lines[0] != want {
		t.Errorf("extract invocation = %q, want %q", lines[0], want)
	}
}

// recorderSpy verifies the ledger hookup without a database.
type recorderSpy struct {
	started  int
	stages   []string
	finished []int
}

func (r *recorderSpy) StartRun(kind, model, suffix, search string) (string, error) {
	r.started++
	return "run-1", nil
}

func (r *recorderSpy) AddStage(runID string, seq int, name, command string, d time.Duration, exitCode int) error {
	r.stages = append(r.stages, name)
	return nil
}

func (r *recorderSpy) FinishRun(id string, exitCode int) error {
	r.finished = append(r.finished, exitCode)
	return nil
}

func TestRunRecordsHistory(t *testing.T) {
	p, _ := testHarness(t, 0, 0, 3)
	spy := &recorderSpy{}
	p.Rec = spy

	p.Run(context.Background(), RunSpec{
		Model: "m", Aggregation: "mean", PCA: "128", Normalize: true, Search: "nn",
	})

	if spy.started != 1 {
		t.Errorf("started = %d, want 1", spy.started)
	}
	if len(spy.stages) != 3 {
		t.Errorf("recorded %d stages, want 3", len(spy.stages))
	}
	if len(spy.finished) != 1 || spy.finished[0] != 3 {
		t.Errorf("finished = %v, want [3]", spy.finished)
	}
}

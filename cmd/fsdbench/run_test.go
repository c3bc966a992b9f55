package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

// chdir is a stand-in for testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestRunNoArgsPrintsUsageAndSucceeds(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := runCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("zero arguments must succeed, got: %v", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("usage text not printed: %q", out.String())
	}
}

func TestRunUnknownModelMapsToExitOne(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := runCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"audioset-vggish-3", "mean", "-1", "nn"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown model under the -1 sentinel")
	}
	if !strings.Contains(err.Error(), "audioset-vggish-3") {
		t.Errorf("error does not name the model: %v", err)
	}
	// A plain error (not an exitError) leaves run() with status 1.
	var ee *exitError
	if errors.As(err, &ee) {
		t.Errorf("lookup failure must be a plain error, got exit status %d", ee.code)
	}
}

func TestExitCodeMapping(t *testing.T) {
	if err := exitCode(0); err != nil {
		t.Errorf("exitCode(0) = %v, want nil", err)
	}
	err := exitCode(3)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Errorf("exitCode(3) = %v, want exitError with code 3", err)
	}
}

func TestParseRunArgsFiveArgs(t *testing.T) {
	got, err := parseRunArgs([]string{"fsd-sinet-vgg42-aps-1", "mean", "-1", "--no-normalization", "nn"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Model != "fsd-sinet-vgg42-aps-1" {
		t.Errorf("model = %q", got.Model)
	}
	if got.Aggregation != "mean" {
		t.Errorf("aggregation = %q", got.Aggregation)
	}
	if got.PCA != "-1" {
		t.Errorf("pca = %q", got.PCA)
	}
	if got.Normalize {
		t.Error("normalize = true, want false for --no-normalization token")
	}
	if got.Search != "nn" {
		t.Errorf("search = %q", got.Search)
	}
}

func TestParseRunArgsNormTokenLiteral(t *testing.T) {
	// Only the literal token disables normalization; anything else enables it.
	got, err := parseRunArgs([]string{"m", "mean", "128", "--normalize", "nn"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Normalize {
		t.Error("normalize = false, want true for non-literal token")
	}
}

func TestParseRunArgsFourArgs(t *testing.T) {
	got, err := parseRunArgs([]string{"m", "mean", "128", "nn"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Normalize {
		t.Error("normalize = false, want true when token omitted")
	}
	if got.Search != "nn" {
		t.Errorf("search = %q, want nn", got.Search)
	}
}

func TestParseRunArgsBadArity(t *testing.T) {
	for _, args := range [][]string{
		{"m"},
		{"m", "mean"},
		{"m", "mean", "128"},
		{"m", "mean", "128", "--no-normalization", "nn", "extra"},
	} {
		if _, err := parseRunArgs(args); err == nil {
			t.Errorf("parseRunArgs(%v) expected error", args)
		}
	}
}

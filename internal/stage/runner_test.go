package stage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript drops a shell script in dir; tests run stages with /bin/sh as
// the "interpreter" so no Python is needed.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ok.sh", `echo "hello from stage $1"`)

	var out bytes.Buffer
	r := &Runner{Python: "/bin/sh", Stdout: &out, Stderr: &out}
	res := r.Run(context.Background(), Stage{Name: "prepare", Script: script, Args: []string{"arg0"}})

	if res.Err != nil {
		t.Fatalf("unexpected spawn error: %v", res.Err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(out.String(), "hello from stage arg0") {
		t.Errorf("stage stdout not streamed: %q", out.String())
	}
	if !strings.Contains(out.String(), "== prepare") {
		t.Errorf("banner missing: %q", out.String())
	}
}

func TestRunNonzeroExit(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", "exit 3")

	var out bytes.Buffer
	r := &Runner{Python: "/bin/sh", Stdout: &out, Stderr: &out}
	res := r.Run(context.Background(), Stage{Name: "evaluate", Script: script})

	if res.Err != nil {
		t.Fatalf("nonzero exit must not be a spawn error: %v", res.Err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(out.String(), "(exit 3)") {
		t.Errorf("status line missing exit code: %q", out.String())
	}
}

func TestRunSpawnFailure(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Python: filepath.Join(t.TempDir(), "no-such-python"), Stdout: &out, Stderr: &out}
	res := r.Run(context.Background(), Stage{Name: "search", Script: "whatever.py"})

	if res.Err == nil {
		t.Fatal("expected spawn error")
	}
	if res.ExitCode != 127 {
		t.Errorf("exit = %d, want 127", res.ExitCode)
	}
}

func TestRunCommandLine(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "noop.sh", "true")

	var out bytes.Buffer
	r := &Runner{Python: "/bin/sh", Stdout: &out, Stderr: &out}
	res := r.Run(context.Background(), Stage{
		Name:   "search",
		Script: script,
		Args:   []string{"emb", "-s", "nn", "--output-dir", "simdir"},
	})

	want := "/bin/sh " + script + " emb -s nn --output-dir simdir"
	if res.Command != want {
		t.Errorf("command = %q, want %q", res.Command, want)
	}
}

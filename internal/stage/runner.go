// Package stage executes one external Python program at a time: the stage is
// spawned, the harness blocks until it terminates, stdout/stderr stream
// through, and the exit code is captured rather than acted on.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Stage describes one external program invocation.
type Stage struct {
	Name   string
	Script string
	Args   []string
}

// Result is what a finished stage invocation left behind.
type Result struct {
	ExitCode int
	Duration time.Duration
	Command  string
	// Err is set only when the stage could not be spawned at all; a stage
	// that started and exited nonzero reports through ExitCode alone.
	Err error
}

// Runner invokes stages through a Python interpreter.
type Runner struct {
	Python string
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner wires a runner to the harness's own streams.
func NewRunner(python string) *Runner {
	return &Runner{Python: python, Stdout: os.Stdout, Stderr: os.Stderr}
}

// spawnFailure distinguishes "could not start" from a program's own nonzero
// exit. The shell convention for an unrunnable command is 127.
const spawnFailure = 127

// Run spawns `<python> <script> <args...>`, prints a banner line before the
// program's output and a status line after it, and blocks until it exits.
func (r *Runner) Run(ctx context.Context, s Stage) Result {
	argv := append([]string{s.Script}, s.Args...)
	cmd := exec.CommandContext(ctx, r.Python, argv...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	cmdline := r.Python + " " + strings.Join(argv, " ")
	r.banner(s.Name, cmdline)

	start := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(start), Command: cmdline}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = spawnFailure
			res.Err = fmt.Errorf("spawn %s: %w", s.Name, err)
		}
	}

	r.status(s.Name, res)
	return res
}

func (r *Runner) banner(name, cmdline string) {
	fmt.Fprintln(r.Stdout, strings.Repeat("=", 72))
	fmt.Fprintf(r.Stdout, "== %s\n", name)
	fmt.Fprintf(r.Stdout, "== %s\n", cmdline)
	fmt.Fprintln(r.Stdout, strings.Repeat("=", 72))
}

func (r *Runner) status(name string, res Result) {
	if res.Err != nil {
		fmt.Fprintf(r.Stdout, "== %s failed to start: %v\n", name, res.Err)
		return
	}
	fmt.Fprintf(r.Stdout, "== %s finished in %s (exit %d)\n", name, res.Duration.Round(time.Millisecond), res.ExitCode)
}

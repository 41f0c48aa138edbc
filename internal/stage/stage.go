// Package stage executes single external-tool invocations. Every pipeline
// step is one Stage run to completion; the branching logic above interprets
// the Result and never talks to os/exec directly, so it can be tested with a
// substitute Runner.
package stage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Stage is one external invocation with a fixed argument set.
type Stage struct {
	Name    string        // stage identifier, e.g. "feature_extractor"
	Bin     string        // executable to invoke
	Args    []string      // full argument list
	Timeout time.Duration // 0 means no timeout
}

// Result is the outcome of one invocation. Failure is never fatal here; the
// caller decides whether it aborts the run or only the current branch.
type Result struct {
	Stage    string
	Success  bool
	ExitCode int
	Output   string // captured stdout
	Stderr   string // captured stderr
	Duration time.Duration
	TimedOut bool
	Err      error
}

// Runner executes stages. The exec-backed implementation is ExecRunner;
// tests substitute their own.
type Runner interface {
	Run(ctx context.Context, s Stage) Result
}

// ExecRunner runs stages as child processes, capturing stdout and stderr and
// optionally streaming the combined output to Log for diagnostics.
type ExecRunner struct {
	Log io.Writer
}

// NewExecRunner creates an ExecRunner that streams diagnostics to log.
// A nil log disables streaming; output is still captured in the Result.
func NewExecRunner(log io.Writer) *ExecRunner {
	return &ExecRunner{Log: log}
}

// Run executes the stage and blocks until it exits or its timeout expires.
// Timeout expiry kills the process and is reported as a failed Result with
// TimedOut set.
func (r *ExecRunner) Run(ctx context.Context, s Stage) Result {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, s.Bin, s.Args...)
	// No controlling terminal: the external tools must not block on input.
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	if r.Log != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Log)
		cmd.Stderr = io.MultiWriter(&stderr, r.Log)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{
		Stage:    s.Name,
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		res.Success = true
		return res
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		res.Err = fmt.Errorf("stage %s timed out after %s", s.Name, s.Timeout)
		return res
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		res.Err = fmt.Errorf("stage %s failed: %w (stderr: %s)", s.Name, err, truncate(stderr.String(), 400))
		return res
	}

	// Binary missing, not executable, or context cancelled.
	res.ExitCode = -1
	res.Err = fmt.Errorf("stage %s failed to start: %w", s.Name, err)
	return res
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

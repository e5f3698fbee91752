package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// CommandTimeout is the hard limit on a single command execution.
// A command hitting it counts as a failure and goes through the
// retry policy like any other.
const CommandTimeout = 300 * time.Second

// Result captures what a finished command left behind.
type Result struct {
	ExitCode int
	Stderr   string
	TimedOut bool
}

// Success reports whether the execution counts as a completed job.
func (r *Result) Success() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Executor runs a job's command. The worker loop only depends on this
// interface so tests can substitute a fake for real process spawning.
type Executor interface {
	Execute(ctx context.Context, command string) (*Result, error)
}

// ShellExecutor executes commands through the system shell with the
// hard timeout and captured standard error.
type ShellExecutor struct {
	Timeout time.Duration
}

// NewShellExecutor returns a shell executor with the default timeout.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Timeout: CommandTimeout}
}

// Execute runs command under `sh -c`. A non-nil error is an
// execution-level fault (the command could not be run at all);
// non-zero exits and timeouts come back in the Result.
func (e *ShellExecutor) Execute(ctx context.Context, command string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stderr: strings.TrimRight(stderr.String(), "\n")}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	// Command never ran (shell missing, fork failure, ...).
	return nil, err
}

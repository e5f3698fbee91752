package engine

import (
	"context"
	"testing"
	"time"
)

func TestShellExecutorSuccess(t *testing.T) {
	e := NewShellExecutor()

	res, err := e.Execute(context.Background(), "true")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success() {
		t.Errorf("Success() = false, exit=%d timedout=%v", res.ExitCode, res.TimedOut)
	}
}

func TestShellExecutorNonZeroExit(t *testing.T) {
	e := NewShellExecutor()

	res, err := e.Execute(context.Background(), "echo boom >&2; exit 3")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Success() {
		t.Error("Success() = true for non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "boom" {
		t.Errorf("Stderr = %q, want captured output", res.Stderr)
	}
}

func TestShellExecutorTimeout(t *testing.T) {
	e := &ShellExecutor{Timeout: 100 * time.Millisecond}

	start := time.Now()
	res, err := e.Execute(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.Success() {
		t.Error("Success() = true for a timed out command")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("execution took %v, timeout did not bite", elapsed)
	}
}

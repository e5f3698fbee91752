package engine

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// StopWaitStep and StopWaitRounds bound how long Stop waits for
	// signalled workers to drain: 10 x 500ms = 5 seconds.
	StopWaitStep   = 500 * time.Millisecond
	StopWaitRounds = 10
)

// StopStatus reports the outcome of a Stop call.
type StopStatus struct {
	// Signalled is how many workers received the termination request.
	Signalled int
	// Remaining holds pids that were still alive after the wait
	// window. They are left running; Stop never force-kills.
	Remaining []int
}

// Clean reports whether every signalled worker exited in time.
func (s StopStatus) Clean() bool {
	return len(s.Remaining) == 0
}

// Supervisor launches worker processes and drives their graceful
// shutdown through the liveness registry.
type Supervisor struct {
	Registry Registry
	Log      *slog.Logger

	// Spawn launches one detached worker process with the given
	// ordinal. Overridable in tests.
	Spawn func(ordinal int) error
	// Signal delivers a graceful termination request to a worker
	// process. Overridable in tests.
	Signal func(pid int) error

	WaitStep   time.Duration
	WaitRounds int
}

// NewSupervisor builds a supervisor whose workers re-exec the current
// binary as `worker run` processes against the given database.
func NewSupervisor(reg Registry, dbPath, registryDir string, log *slog.Logger) *Supervisor {
	return &Supervisor{
		Registry:   reg,
		Log:        log,
		Spawn:      spawnWorkerProcess(dbPath, registryDir),
		Signal:     signalTerm,
		WaitStep:   StopWaitStep,
		WaitRounds: StopWaitRounds,
	}
}

// Start launches count independent worker processes with distinct
// ordinals. Each worker registers itself on startup, so the registry
// reflects exactly the set of processes that actually started.
func (s *Supervisor) Start(count int) error {
	if count < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", count)
	}

	var g errgroup.Group
	for i := 1; i <= count; i++ {
		ordinal := i
		g.Go(func() error {
			if err := s.Spawn(ordinal); err != nil {
				return fmt.Errorf("spawn worker %d: %w", ordinal, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.Log.Info("workers started", "count", count)
	return nil
}

// ActiveWorkers returns the pids of live worker processes, pruning
// stale registry entries along the way.
func (s *Supervisor) ActiveWorkers() ([]int, error) {
	return s.Registry.Alive()
}

// Stop sends a graceful termination request to every active worker and
// waits up to the configured window for them to drain. Workers still
// alive after the window are reported, not killed: an in-flight
// command always runs to completion or its own timeout.
func (s *Supervisor) Stop() (StopStatus, error) {
	pids, err := s.ActiveWorkers()
	if err != nil {
		return StopStatus{}, err
	}
	if len(pids) == 0 {
		return StopStatus{}, nil
	}

	for _, pid := range pids {
		if err := s.Signal(pid); err != nil {
			// The process may have exited between the scan and the
			// signal; the next Alive call prunes it.
			s.Log.Warn("signal worker", "pid", pid, "err", err)
		}
	}

	status := StopStatus{Signalled: len(pids)}
	for i := 0; i < s.WaitRounds; i++ {
		time.Sleep(s.WaitStep)
		remaining, err := s.ActiveWorkers()
		if err != nil {
			return status, err
		}
		if len(remaining) == 0 {
			return status, nil
		}
		status.Remaining = remaining
	}
	return status, nil
}

// spawnWorkerProcess re-execs the current binary as a hidden
// `worker run` command so each worker is a real OS process with its
// own single-threaded loop.
func spawnWorkerProcess(dbPath, registryDir string) func(ordinal int) error {
	return func(ordinal int) error {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}

		cmd := exec.Command(exe, "worker", "run",
			"--ordinal", strconv.Itoa(ordinal),
			"--db", dbPath,
			"--registry-dir", registryDir,
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		// New session: workers outlive the supervisor invocation and
		// ignore the terminal's own interrupt.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
}

func signalTerm(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}

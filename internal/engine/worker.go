package engine

import (
	"context"
	"log/slog"
	"os"
	"time"

	"queuectl/internal/model"
	"queuectl/internal/store"
)

// PollInterval is how long an idle worker sleeps between claim
// attempts.
const PollInterval = 1 * time.Second

// Worker is a single-threaded job execution loop. Multiple workers run
// as independent processes and share nothing but the store and the
// liveness registry.
type Worker struct {
	Ordinal  int
	Store    *store.Store
	Exec     Executor
	Registry Registry
	Log      *slog.Logger

	Poll time.Duration
}

// NewWorker builds a worker with the default executor and poll
// interval. A nil registry disables liveness registration, which tests
// rely on.
func NewWorker(ordinal int, st *store.Store, reg Registry, log *slog.Logger) *Worker {
	return &Worker{
		Ordinal:  ordinal,
		Store:    st,
		Exec:     NewShellExecutor(),
		Registry: reg,
		Log:      log.With("worker", ordinal),
		Poll:     PollInterval,
	}
}

// Run polls, claims, and executes jobs until ctx is cancelled. The
// cancellation is only observed at the poll boundary: a job that is
// already executing runs to completion or timeout first.
func (w *Worker) Run(ctx context.Context) {
	pid := os.Getpid()
	if w.Registry != nil {
		if err := w.Registry.Register(pid, w.Ordinal); err != nil {
			w.Log.Error("register worker", "err", err)
			return
		}
		defer func() {
			if err := w.Registry.Deregister(pid); err != nil {
				w.Log.Error("deregister worker", "err", err)
			}
		}()
	}

	w.Log.Info("worker started", "pid", pid)
	defer w.Log.Info("worker stopped", "pid", pid)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.Store.ClaimOne(ctx, time.Now().UTC())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Store hiccups never kill the loop.
			w.Log.Error("claim failed", "err", err)
			w.sleep(ctx)
			continue
		}
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.process(ctx, job)
	}
}

// process executes one claimed job and writes its outcome back.
// Outcome writes run on a context detached from the shutdown signal so
// an in-flight job is always recorded.
func (w *Worker) process(ctx context.Context, job *model.Job) {
	runCtx := context.WithoutCancel(ctx)

	w.Log.Info("job claimed", "job", job.ID, "command", job.Command, "attempts", job.Attempts)

	res, err := w.Exec.Execute(runCtx, job.Command)
	now := time.Now().UTC()

	if err == nil && res.Success() {
		if uerr := w.Store.Complete(runCtx, job.ID, now); uerr != nil {
			w.Log.Error("record completion", "job", job.ID, "err", uerr)
			return
		}
		w.Log.Info("job completed", "job", job.ID)
		return
	}

	switch {
	case err != nil:
		w.Log.Error("job fault", "job", job.ID, "err", err)
	case res.TimedOut:
		w.Log.Warn("job timed out", "job", job.ID)
	default:
		w.Log.Warn("job failed", "job", job.ID, "exit_code", res.ExitCode, "stderr", res.Stderr)
	}

	w.fail(runCtx, job, now)
}

// fail routes a failed execution through the retry policy.
func (w *Worker) fail(ctx context.Context, job *model.Job, now time.Time) {
	attempts := job.Attempts + 1
	base := w.Store.IntConfig(ctx, store.ConfigBackoffBase, 2)
	capSeconds := w.Store.IntConfig(ctx, store.ConfigBackoffCap, 0)

	out := Decide(attempts, job.RetryLimit, base, capSeconds)
	if out.Dead {
		if err := w.Store.MarkDead(ctx, job.ID, attempts, now); err != nil {
			w.Log.Error("move to DLQ", "job", job.ID, "err", err)
			return
		}
		w.Log.Warn("job moved to DLQ", "job", job.ID, "attempts", attempts)
		return
	}

	nextRun := now.Add(out.Delay)
	if err := w.Store.ScheduleRetry(ctx, job.ID, attempts, nextRun, now); err != nil {
		w.Log.Error("schedule retry", "job", job.ID, "err", err)
		return
	}
	w.Log.Info("job retry scheduled", "job", job.ID, "attempts", attempts, "delay", out.Delay)
}

// sleep waits one poll interval or until shutdown, whichever is first.
func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.Poll):
	}
}

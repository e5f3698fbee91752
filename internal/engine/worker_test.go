package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"queuectl/internal/model"
	"queuectl/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExecutor scripts execution outcomes without spawning processes.
type fakeExecutor struct {
	mu    sync.Mutex
	calls int
	fn    func(command string) (*Result, error)
}

func (f *fakeExecutor) Execute(_ context.Context, command string) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(command)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestWorker(st *store.Store, exec Executor) *Worker {
	w := NewWorker(1, st, nil, discardLogger())
	w.Exec = exec
	w.Poll = 20 * time.Millisecond
	return w
}

// waitForState polls until the job reaches the wanted state or the
// deadline passes.
func waitForState(t *testing.T, st *store.Store, id, state string, timeout time.Duration) *model.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		j, err := st.FindJob(context.Background(), id)
		if err != nil {
			t.Fatalf("find job: %v", err)
		}
		if j.State == state {
			return j
		}
		time.Sleep(20 * time.Millisecond)
	}
	j, _ := st.FindJob(context.Background(), id)
	t.Fatalf("job %s never reached %s (last: %+v)", id, state, j)
	return nil
}

func TestWorkerCompletesSuccessfulJob(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := &fakeExecutor{fn: func(string) (*Result, error) {
		return &Result{ExitCode: 0}, nil
	}}

	if err := st.Enqueue(ctx, model.Job{ID: "ok", Command: "echo hello"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := newTestWorker(st, exec)
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	j := waitForState(t, st, "ok", model.StateCompleted, 3*time.Second)
	if j.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", j.Attempts)
	}

	cancel()
	<-done
}

func TestWorkerFailureSchedulesBackoff(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Enqueue(ctx, model.Job{ID: "flaky", Command: "exit 1", RetryLimit: 3}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := st.ClaimOne(ctx, time.Now().UTC())
	if err != nil || job == nil {
		t.Fatalf("claim = (%v, %v), want job", job, err)
	}

	w := newTestWorker(st, &fakeExecutor{fn: func(string) (*Result, error) {
		return &Result{ExitCode: 1, Stderr: "nope"}, nil
	}})

	before := time.Now().UTC()
	w.process(ctx, job)

	j, err := st.FindJob(ctx, "flaky")
	if err != nil {
		t.Fatalf("find job: %v", err)
	}
	if j.State != model.StatePending {
		t.Fatalf("state = %q, want pending", j.State)
	}
	if j.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", j.Attempts)
	}

	// Default base 2: first failure delays 2^1 seconds.
	wantNextRun := before.Add(2 * time.Second)
	diff := j.NextRunAt.Sub(wantNextRun)
	if diff < -time.Second || diff > time.Second {
		t.Errorf("next_run_at = %v, want about %v", j.NextRunAt, wantNextRun)
	}
}

func TestWorkerRetriesThenMovesToDLQ(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Base 1 keeps the retry delay at one second so the full
	// retry -> dead path fits in a short test.
	if err := st.SetConfig(ctx, store.ConfigBackoffBase, "1"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := st.Enqueue(ctx, model.Job{ID: "doomed", Command: "exit 1", RetryLimit: 2}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	exec := &fakeExecutor{fn: func(string) (*Result, error) {
		return &Result{ExitCode: 1, Stderr: "always fails"}, nil
	}}

	w := newTestWorker(st, exec)
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	j := waitForState(t, st, "doomed", model.StateDead, 8*time.Second)
	if j.Attempts != 2 {
		t.Errorf("attempts = %d, want retry limit 2", j.Attempts)
	}
	if !j.NextRunAt.IsZero() {
		t.Errorf("next_run_at = %v, want cleared on death", j.NextRunAt)
	}
	if got := exec.callCount(); got != 2 {
		t.Errorf("executions = %d, want 2", got)
	}

	cancel()
	<-done
}

func TestWorkerExecutionFaultIsRetried(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Enqueue(ctx, model.Job{ID: "fault", Command: "whatever", RetryLimit: 3}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, err := st.ClaimOne(ctx, time.Now().UTC())
	if err != nil || job == nil {
		t.Fatalf("claim = (%v, %v), want job", job, err)
	}

	w := newTestWorker(st, &fakeExecutor{fn: func(string) (*Result, error) {
		return nil, errors.New("shell exploded")
	}})
	w.process(ctx, job)

	j, err := st.FindJob(ctx, "fault")
	if err != nil {
		t.Fatalf("find job: %v", err)
	}
	if j.State != model.StatePending {
		t.Errorf("state = %q, want pending (fault routed through retry policy)", j.State)
	}
	if j.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", j.Attempts)
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	w := newTestWorker(st, &fakeExecutor{fn: func(string) (*Result, error) {
		return &Result{}, nil
	}})

	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestWorkerRegistersAndDeregisters(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	reg := &fakeWorkerRegistry{}
	w := newTestWorker(st, &fakeExecutor{fn: func(string) (*Result, error) {
		return &Result{}, nil
	}})
	w.Registry = reg

	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	time.Sleep(50 * time.Millisecond)
	if !reg.isRegistered() {
		t.Error("worker not registered while running")
	}

	cancel()
	<-done
	if reg.isRegistered() {
		t.Error("worker still registered after clean exit")
	}
}

// fakeWorkerRegistry records registration state without touching disk.
type fakeWorkerRegistry struct {
	mu         sync.Mutex
	registered map[int]int
}

func (f *fakeWorkerRegistry) Register(pid, ordinal int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registered == nil {
		f.registered = map[int]int{}
	}
	f.registered[pid] = ordinal
	return nil
}

func (f *fakeWorkerRegistry) Deregister(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, pid)
	return nil
}

func (f *fakeWorkerRegistry) Alive() ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pids []int
	for pid := range f.registered {
		pids = append(pids, pid)
	}
	return pids, nil
}

func (f *fakeWorkerRegistry) isRegistered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered) > 0
}

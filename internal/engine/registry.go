package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Registry tracks which worker processes are currently alive. It is
// only a liveness record: it says nothing about job state.
type Registry interface {
	// Register records the calling worker process as alive.
	Register(pid, ordinal int) error
	// Deregister removes the worker's record on clean exit.
	Deregister(pid int) error
	// Alive returns the pids of workers that are still running.
	// Records of dead processes are pruned as a side effect.
	Alive() ([]int, error)
}

// FileRegistry keeps one marker file per live worker process in a
// directory, named worker.<pid>.pid and containing the ordinal.
type FileRegistry struct {
	Dir string

	// probe reports whether a pid is alive. Overridable in tests.
	probe func(pid int) bool
}

// DefaultRegistryDir returns the worker marker directory under the
// user's home, creating it if needed.
func DefaultRegistryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".queuectl", "workers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create registry dir: %w", err)
	}
	return dir, nil
}

// NewFileRegistry returns a registry rooted at dir.
func NewFileRegistry(dir string) *FileRegistry {
	return &FileRegistry{Dir: dir, probe: processAlive}
}

func (r *FileRegistry) markerPath(pid int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("worker.%d.pid", pid))
}

// Register implements Registry.
func (r *FileRegistry) Register(pid, ordinal int) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	return os.WriteFile(r.markerPath(pid), []byte(strconv.Itoa(ordinal)), 0o644)
}

// Deregister implements Registry.
func (r *FileRegistry) Deregister(pid int) error {
	err := os.Remove(r.markerPath(pid))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Alive implements Registry. Marker files whose process is gone are
// removed, so the registry self-heals after worker crashes.
func (r *FileRegistry) Alive() ([]int, error) {
	entries, err := os.ReadDir(r.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan registry: %w", err)
	}

	var pids []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "worker.") || !strings.HasSuffix(name, ".pid") {
			continue
		}
		pidStr := strings.TrimSuffix(strings.TrimPrefix(name, "worker."), ".pid")
		pid, err := strconv.Atoi(pidStr)
		if err != nil || !r.probe(pid) {
			_ = os.Remove(filepath.Join(r.Dir, name))
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// processAlive probes a pid with signal 0, which checks existence
// without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

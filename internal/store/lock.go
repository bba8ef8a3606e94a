package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// fileGuard serializes access to one data file, within the process via a
// mutex and across processes via an advisory lock on "<path>.lock". Readers
// take the advisory lock shared, but a flock.Flock tracks a single holder, so
// in-process readers still queue on mu.
type fileGuard struct {
	mu   sync.Mutex
	dir  string
	lock *flock.Flock
}

func newFileGuard(path string) *fileGuard {
	return &fileGuard{dir: filepath.Dir(path), lock: flock.New(path + ".lock")}
}

func (g *fileGuard) withWrite(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	if err := g.lock.Lock(); err != nil {
		return fmt.Errorf("acquire file lock %s: %w", g.lock.Path(), err)
	}
	defer g.lock.Unlock()
	return fn()
}

func (g *fileGuard) withRead(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	if err := g.lock.RLock(); err != nil {
		return fmt.Errorf("acquire shared file lock %s: %w", g.lock.Path(), err)
	}
	defer g.lock.Unlock()
	return fn()
}

// keyedGuards hands out one fileGuard per file path.
type keyedGuards struct {
	mu     sync.Mutex
	guards map[string]*fileGuard
}

func (k *keyedGuards) get(path string) *fileGuard {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.guards == nil {
		k.guards = make(map[string]*fileGuard)
	}
	g, ok := k.guards[path]
	if !ok {
		g = newFileGuard(path)
		k.guards[path] = g
	}
	return g
}

// writeFileAtomic writes via a temp file in the same directory and renames it
// over path.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

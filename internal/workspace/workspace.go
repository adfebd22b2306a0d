// Package workspace prepares the storage directories and guards them with
// an advisory lock so only one pipeline touches them at a time.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/nguyentantai21042004/wordcut/internal/config"
)

var ErrLocked = errors.New("workspace is in use by another wordcut process")

// Dirs returns every directory the pipeline writes to.
func Dirs(p config.PathsConfig) []string {
	return []string{
		p.Videos,
		p.Normalized,
		p.Words,
		p.Trimmed,
		p.Results,
		p.Temp,
		filepath.Dir(p.StateDB),
		filepath.Dir(p.Lock),
	}
}

// Ensure creates all necessary directories
func Ensure(p config.PathsConfig) error {
	for _, dir := range Dirs(p) {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Lock is a held workspace lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock at path without blocking. It returns ErrLocked when
// another process holds it.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the workspace.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Package runlock keeps two extract runs from writing into the same output
// directory at once.
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the locked directory.
const FileName = ".sndx.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another sndx run is using this output directory")

// Lock is a held directory lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for dir without blocking.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

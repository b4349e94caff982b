package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	dir := t.TempDir()
	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if first.Path() != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected lock path %q", first.Path())
	}
	if _, err := os.Stat(first.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked while held, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer second.Release()

	var none *Lock
	if err := none.Release(); err != nil {
		t.Fatalf("nil release should be a no-op: %v", err)
	}
}

package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteRecording creates dir/name holding size bytes of filler and returns
// its path. It stands in for an encoder's output file.
func WriteRecording(t testing.TB, dir, name string, size int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes size placeholder bytes to path, creating parent
// directories. Size thresholds in the artifact checks only look at file
// length, so the content is a repeating alphabet. A size <= 0 writes one byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	write(t, path, Bytes(int(size)))
}

// WriteText writes body to path, creating parent directories.
func WriteText(t testing.TB, path, body string) {
	t.Helper()
	write(t, path, []byte(body))
}

// Bytes returns size bytes of a repeating pattern.
func Bytes(size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = byte('a' + i%26)
	}
	return out
}

func write(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

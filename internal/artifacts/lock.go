package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WithLock runs fn while holding the named file lock under the build root.
// Documents shared between writers (content, upload manifest) are only
// rewritten inside such a section.
func (s *Store) WithLock(name string, fn func() error) error {
	if err := os.MkdirAll(filepath.Join(s.root, lockDirName), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(s.lockPath(name))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", name, err)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

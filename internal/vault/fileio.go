package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only

	lockRetryDelay = 50 * time.Millisecond
)

// LockPath returns the advisory lock file guarding the vault at path.
func LockPath(path string) string {
	return path + ".lock"
}

// acquire takes the exclusive advisory lock for the vault at path,
// waiting until ctx is done.
func acquire(ctx context.Context, path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	fl := flock.New(LockPath(path))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock vault: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock vault: %w", ctx.Err())
	}
	return fl, nil
}

// atomicWriter replaces files by writing a temp file and renaming it.
type atomicWriter struct {
	// beforeRename runs after the temp file is complete and before it
	// replaces the target. Tests use it to simulate a crash.
	beforeRename func(tmpPath string) error
}

// write replaces path with data. On any failure the previous content of
// path is left untouched and the temp file is removed.
func (w *atomicWriter) write(path string, data []byte) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(FilePermSecure); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if w.beforeRename != nil {
		if err := w.beforeRename(tmpPath); err != nil {
			return err
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports fsync on directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}

package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/waabox/imgdeck/internal/domain"
)

// writeAtomic writes data to a hidden temp file next to path, syncs it and
// moves it into place. Readers never observe a partial file. Without
// overwrite the temp file is hard-linked to path, so an existing destination,
// including one created by a concurrent writer, is reported as
// domain.ErrPathCollision and left untouched.
func writeAtomic(path string, data []byte, overwrite bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if !overwrite {
		if _, statErr := os.Lstat(path); statErr == nil {
			return domain.ErrPathCollision
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if overwrite {
		return os.Rename(tmpName, path)
	}
	return publishNew(tmpName, path)
}

// publishNew moves tmpName to path only if path does not exist yet. The
// temp file is gone when it returns nil.
func publishNew(tmpName, path string) error {
	linkErr := os.Link(tmpName, path)
	switch {
	case linkErr == nil:
		os.Remove(tmpName)
		return nil
	case errors.Is(linkErr, fs.ErrExist):
		return domain.ErrPathCollision
	}
	// Filesystems without hard links fall back to check then rename.
	if _, statErr := os.Lstat(path); statErr == nil {
		return domain.ErrPathCollision
	}
	return os.Rename(tmpName, path)
}

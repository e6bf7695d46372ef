package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// LockPath returns the lock file guarding outputDir.
func LockPath(outputDir string) string {
	return filepath.Clean(outputDir) + ".lock"
}

// acquireLock creates the lock file next to outputDir. It fails with
// ErrExportLocked if the file already exists.
func acquireLock(outputDir string) (func(), error) {
	path := LockPath(outputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: remove %s if no export is running", ErrExportLocked, filepath.Base(path))
		}
		return nil, err
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()
	return func() { _ = os.Remove(path) }, nil
}

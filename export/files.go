package export

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// writeFile atomically replaces path with data, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func copyAssets(outputDir string, assets []Asset) (int, error) {
	for _, a := range assets {
		if err := copyFile(a.Src, filepath.Join(outputDir, filepath.FromSlash(a.Path))); err != nil {
			return 0, err
		}
	}
	return len(assets), nil
}

func copyFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(dst, f)
}

package pagesmith

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// lookupAsset maps a request path to a file in the asset directories,
// trying the preferred directory first. Directories and paths that escape
// the asset roots are never returned.
func (a *App) lookupAsset(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.Contains(clean, "\x00") {
		return "", false
	}
	rel := filepath.FromSlash(strings.TrimPrefix(clean, "/"))

	dirs := a.Config.AssetDirs()
	for i := len(dirs) - 1; i >= 0; i-- {
		file := filepath.Join(dirs[i], rel)
		fi, err := os.Stat(file)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		return file, true
	}
	return "", false
}

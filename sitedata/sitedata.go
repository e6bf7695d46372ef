// Package sitedata loads the layered JSON documents a site is built from.
//
// Every document exists in up to two places: a built-in default directory
// and a deployment-specific override directory. Missing files are treated as
// empty. Routes are merged by key and data documents are merged shallowly,
// with the override layer winning in both cases.
package sitedata

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File names looked up in each source directory.
const (
	RoutesFile = "routes.json"
	DataFile   = "data.json"
)

// Sources names the directories a site's documents are layered from.
type Sources struct {
	// Root is the project root. File names in errors are reported relative
	// to it so messages never carry absolute paths.
	Root string
	// DefaultDir holds the built-in documents.
	DefaultDir string
	// OverrideDir holds deployment-specific documents. Optional.
	OverrideDir string
}

// layers returns the directories in merge order, lowest precedence first.
func (s Sources) layers() []string {
	var dirs []string
	if s.DefaultDir != "" {
		dirs = append(dirs, s.DefaultDir)
	}
	if s.OverrideDir != "" && filepath.Clean(s.OverrideDir) != filepath.Clean(s.DefaultDir) {
		dirs = append(dirs, s.OverrideDir)
	}
	return dirs
}

// DisplayName returns path relative to Root when it lives below it.
func (s Sources) DisplayName(path string) string {
	if s.Root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// readOptional returns the file contents, or nil when the file does not exist.
func readOptional(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

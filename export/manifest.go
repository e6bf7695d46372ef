package export

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eringen/pagesmith/sitedata"
)

// Entry maps a route to the file it is written to.
type Entry struct {
	Route string
	// Path is relative to the output root, slash separated.
	Path string
}

// Asset is a static file copied into the output root.
type Asset struct {
	Src  string
	Path string
}

// Manifest is everything one export run writes.
type Manifest struct {
	Pages  []Entry
	Assets []Asset
	// Rejected holds routes that cannot be written, such as path collisions,
	// and assets whose path is taken by a page. Rejected assets have no Route.
	Rejected []Item
}

// Destination returns the output path for route. Routes ending in ".html"
// are written as is; every other route becomes a directory index.
func Destination(route string) string {
	rel := strings.TrimPrefix(route, "/")
	if rel == "" {
		return "index.html"
	}
	if strings.HasSuffix(rel, "/") || path.Ext(rel) != ".html" {
		return path.Join(rel, "index.html")
	}
	return path.Clean(rel)
}

// BuildManifest plans an export of routes and the files under assetDirs.
// Routes are visited in sorted order; a route whose destination is already
// claimed, as a file or as a parent directory, is rejected. Pages take
// precedence over assets as they do when serving, so an asset that lands on
// or inside a page path is rejected too.
func BuildManifest(routes sitedata.RouteTable, assetDirs []string) (Manifest, error) {
	var m Manifest

	files := make(map[string]string)
	dirs := make(map[string]string)
	for _, route := range routes.Paths() {
		dest := Destination(route)
		if !safePath(dest) {
			m.Rejected = append(m.Rejected, Item{Route: route, Path: dest,
				Err: newItemError(route, dest, errors.New("path escapes output dir"))})
			continue
		}
		if owner, ok := claimedBy(dest, files, dirs); ok {
			m.Rejected = append(m.Rejected, Item{Route: route, Path: dest,
				Err: newItemError(route, dest, fmt.Errorf("%w with %s", ErrPathCollision, owner))})
			continue
		}
		files[dest] = route
		for dir := path.Dir(dest); dir != "."; dir = path.Dir(dir) {
			if _, ok := dirs[dir]; !ok {
				dirs[dir] = route
			}
		}
		m.Pages = append(m.Pages, Entry{Route: route, Path: dest})
	}

	assets, err := collectAssets(assetDirs)
	if err != nil {
		return Manifest{}, err
	}
	for _, a := range assets {
		if owner, ok := claimedBy(a.Path, files, dirs); ok {
			m.Rejected = append(m.Rejected, Item{Path: a.Path,
				Err: newItemError("", a.Path, fmt.Errorf("%w with %s", ErrPathCollision, owner))})
			continue
		}
		m.Assets = append(m.Assets, a)
	}
	return m, nil
}

func claimedBy(dest string, files, dirs map[string]string) (string, bool) {
	if owner, ok := files[dest]; ok {
		return owner, true
	}
	if owner, ok := dirs[dest]; ok {
		return owner, true
	}
	for dir := path.Dir(dest); dir != "."; dir = path.Dir(dir) {
		if owner, ok := files[dir]; ok {
			return owner, true
		}
	}
	return "", false
}

func safePath(p string) bool {
	return p != ".." && !strings.HasPrefix(p, "../") && !path.IsAbs(p)
}

// collectAssets lists the regular files under dirs. When two directories
// hold the same relative path the later directory wins.
func collectAssets(dirs []string) ([]Asset, error) {
	byPath := make(map[string]string)
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == dir && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			byPath[filepath.ToSlash(rel)] = p
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan assets: %w", err)
		}
	}

	assets := make([]Asset, 0, len(byPath))
	for rel, src := range byPath {
		assets = append(assets, Asset{Src: src, Path: rel})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

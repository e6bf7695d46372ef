package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/eringen/pagesmith/sitedata"
)

// NormalizePath makes path absolute. The empty path is "/". Trailing slashes
// are left alone: "/about" and "/about/" are different routes.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Resolve looks path up in routes by exact match and checks that the
// template it names exists under templatesDir.
func Resolve(path string, routes sitedata.RouteTable, templatesDir string) (string, error) {
	route := NormalizePath(path)
	templateID, ok := routes[route]
	if !ok {
		return "", newRouteNotFoundError(route)
	}
	file, ok := templatePath(templatesDir, templateID)
	if !ok {
		return "", newTemplateMissingError(route, templateID)
	}
	fi, err := os.Stat(file)
	if err != nil || fi.IsDir() {
		return "", newTemplateMissingError(route, templateID)
	}
	return templateID, nil
}

// templatePath joins id onto dir, refusing ids that escape dir.
func templatePath(dir, id string) (string, bool) {
	file := filepath.Join(dir, filepath.FromSlash(id))
	rel, err := filepath.Rel(dir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return file, true
}

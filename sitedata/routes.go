package sitedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// RootTemplate backs "/" when no document maps it.
const RootTemplate = "index.html"

// RouteTable maps a URL path to a template id relative to the templates root.
type RouteTable map[string]string

// Paths returns the routes in lexical order.
func (r RouteTable) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns an independent copy of the table.
func (r RouteTable) Clone() RouteTable {
	out := make(RouteTable, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// LoadRoutes merges routes.json from every source layer. Entries in the
// override layer replace default entries with the same path. "/" always
// resolves: it maps to RootTemplate unless a document says otherwise.
func LoadRoutes(src Sources) (RouteTable, error) {
	routes := RouteTable{}
	for _, dir := range src.layers() {
		path := filepath.Join(dir, RoutesFile)
		layer, err := readRoutes(path)
		if err != nil {
			return nil, newConfigError(src.DisplayName(path), err)
		}
		for route, tmpl := range layer {
			routes[route] = tmpl
		}
	}
	if _, ok := routes["/"]; !ok {
		routes["/"] = RootTemplate
	}
	return routes, nil
}

func readRoutes(path string) (RouteTable, error) {
	b, err := readOptional(path)
	if err != nil || b == nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}

	routes := RouteTable{}
	switch b[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, err
		}
		for _, route := range list {
			routes[route] = LegacyTemplate(route)
		}
	case '{':
		if err := json.Unmarshal(b, &routes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected an object of path to template or a list of paths")
	}

	for route, tmpl := range routes {
		if !strings.HasPrefix(route, "/") {
			return nil, fmt.Errorf("route %q must begin with /", route)
		}
		if strings.TrimSpace(tmpl) == "" {
			return nil, fmt.Errorf("route %q has an empty template", route)
		}
	}
	return routes, nil
}

// LegacyTemplate derives the template id for a route listed in the older
// list-only routes format, where every path is its own template.
func LegacyTemplate(route string) string {
	rel := strings.TrimPrefix(route, "/")
	switch {
	case rel == "":
		return RootTemplate
	case strings.HasSuffix(rel, "/"):
		return rel + "index.html"
	case strings.HasSuffix(rel, ".html"):
		return rel
	default:
		return rel + "/index.html"
	}
}

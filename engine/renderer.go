package engine

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SharedDirs are template-root subdirectories whose *.html files are parsed
// alongside every page, so pages can call their blocks with {{template}}.
var SharedDirs = []string{"layouts", "partials"}

// Renderer executes file-backed templates with a fixed helper registry.
// Compiled templates are cached and recompiled when any file they were
// built from changes on disk.
type Renderer struct {
	dir     string
	funcs   template.FuncMap
	logger  *zap.Logger
	mu      sync.RWMutex
	entries map[string]compiledTemplate
}

type compiledTemplate struct {
	tmpl  *template.Template
	stamp string
}

// NewRenderer creates a Renderer for the templates under dir.
func NewRenderer(dir string, helpers Helpers, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := make(template.FuncMap, len(helpers))
	for name, fn := range helpers {
		funcs[name] = fn
	}
	return &Renderer{
		dir:     dir,
		funcs:   funcs,
		logger:  logger,
		entries: make(map[string]compiledTemplate),
	}
}

// Dir returns the templates root.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render executes the template named by templateID with rc as its data.
func (r *Renderer) Render(templateID string, rc RenderContext) (string, error) {
	tmpl, err := r.lookup(templateID)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, rc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Invalidate drops every compiled template.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.entries = make(map[string]compiledTemplate)
	r.mu.Unlock()
}

// lookup returns a compiled template, reading the read-locked cache first and
// only taking the write lock when the files changed since the last compile.
func (r *Renderer) lookup(templateID string) (*template.Template, error) {
	files, err := r.sourceFiles(templateID)
	if err != nil {
		return nil, err
	}
	stamp, err := fingerprint(files)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, errStripPath(err))
	}

	r.mu.RLock()
	entry, ok := r.entries[templateID]
	r.mu.RUnlock()
	if ok && entry.stamp == stamp {
		return entry.tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[templateID]; ok && entry.stamp == stamp {
		return entry.tmpl, nil
	}
	tmpl, err := r.compile(templateID, files)
	if err != nil {
		return nil, err
	}
	r.entries[templateID] = compiledTemplate{tmpl: tmpl, stamp: stamp}
	r.logger.Debug("compiled template", zap.String("template", templateID), zap.Int("files", len(files)))
	return tmpl, nil
}

// sourceFiles lists the shared files followed by the page itself.
func (r *Renderer) sourceFiles(templateID string) ([]string, error) {
	page, ok := templatePath(r.dir, templateID)
	if !ok {
		return nil, fmt.Errorf("template %s: outside the templates root", templateID)
	}
	var files []string
	for _, sub := range SharedDirs {
		matches, err := filepath.Glob(filepath.Join(r.dir, sub, "*.html"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			if m != page {
				files = append(files, m)
			}
		}
	}
	return append(files, page), nil
}

// compile parses the shared files first so that {{define}} blocks in the
// page override {{block}} defaults declared by layouts.
func (r *Renderer) compile(templateID string, files []string) (*template.Template, error) {
	root := template.New(templateID).Funcs(r.funcs)
	for i, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", templateID, errStripPath(err))
		}
		if i == len(files)-1 {
			if _, err := root.Parse(string(src)); err != nil {
				return nil, err
			}
			break
		}
		name := r.name(file)
		if _, err := root.New(name).Parse(string(src)); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (r *Renderer) name(file string) string {
	rel, err := filepath.Rel(r.dir, file)
	if err != nil {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}

func fingerprint(files []string) (string, error) {
	var b strings.Builder
	for _, file := range files {
		fi, err := os.Stat(file)
		if err != nil {
			return "", err
		}
		b.WriteString(file)
		b.WriteByte('@')
		b.WriteString(strconv.FormatInt(fi.ModTime().UnixNano(), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(fi.Size(), 10))
		b.WriteByte(';')
	}
	return b.String(), nil
}

// errStripPath drops the file path from filesystem errors so messages that
// reach HTTP responses never expose the server's directory layout.
func errStripPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

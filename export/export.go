// Package export writes a static copy of a site by fetching every route from
// a running server and mirroring the responses into an output directory.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/pagesmith/sitedata"
)

// Config configures an Exporter.
type Config struct {
	// OutputDir is wiped and recreated on every run.
	OutputDir string
	// AssetDirs are copied verbatim into OutputDir, lowest precedence first.
	// Missing directories are skipped.
	AssetDirs []string
	Fetcher   Fetcher
	Logger    *zap.Logger
}

// Exporter runs static exports. A single Exporter never runs two exports at
// once, and the lock file keeps separate processes off the same output root.
type Exporter struct {
	cfg    Config
	logger *zap.Logger
	mu     sync.Mutex
}

// New validates cfg and returns an Exporter.
func New(cfg Config) (*Exporter, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("export: fetcher is required")
	}
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("export: output dir: %w", err)
	}
	if cfg.OutputDir == "" || out == filepath.VolumeName(out)+string(filepath.Separator) {
		return nil, fmt.Errorf("export: refusing to use %q as output dir", cfg.OutputDir)
	}
	for _, dir := range cfg.AssetDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("export: asset dir: %w", err)
		}
		if within(abs, out) {
			return nil, fmt.Errorf("export: output dir %s would delete asset dir %s", cfg.OutputDir, dir)
		}
	}
	cfg.OutputDir = out
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Exporter{cfg: cfg, logger: cfg.Logger}, nil
}

// OutputDir returns the absolute output root.
func (e *Exporter) OutputDir() string {
	return e.cfg.OutputDir
}

// Export wipes the output root, copies assets and writes one file per route.
// A route that fails is recorded in the report and the run continues; the
// returned error is reserved for failures that stop the whole run.
func (e *Exporter) Export(ctx context.Context, routes sitedata.RouteTable) (Report, error) {
	if !e.mu.TryLock() {
		return Report{}, ErrExportLocked
	}
	defer e.mu.Unlock()

	start := time.Now()
	report := Report{OutputDir: e.cfg.OutputDir}

	unlock, err := acquireLock(e.cfg.OutputDir)
	if err != nil {
		return report, err
	}
	defer unlock()

	if err := resetDir(e.cfg.OutputDir); err != nil {
		return report, fmt.Errorf("reset output dir: %w", err)
	}

	manifest, err := BuildManifest(routes, e.cfg.AssetDirs)
	if err != nil {
		return report, err
	}

	n, err := copyAssets(e.cfg.OutputDir, manifest.Assets)
	if err != nil {
		return report, fmt.Errorf("copy assets: %w", err)
	}
	report.Assets = n
	e.logger.Info("copied assets", zap.Int("files", n))

	for _, item := range manifest.Rejected {
		e.logger.Warn("skipping", zap.String("route", item.Route), zap.String("path", item.Path), zap.Error(item.Err))
		report.Failed = append(report.Failed, item)
	}

	for _, entry := range manifest.Pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := e.exportPage(ctx, entry)
		if item.Err != nil {
			e.logger.Error("export route failed", zap.String("route", item.Route), zap.Error(item.Err))
			report.Failed = append(report.Failed, item)
			continue
		}
		e.logger.Info("saved route", zap.String("route", item.Route), zap.String("path", item.Path), zap.Int("bytes", item.Bytes))
		report.Pages = append(report.Pages, item)
	}

	report.Duration = time.Since(start)
	e.logger.Info("export finished",
		zap.Int("pages", len(report.Pages)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Exporter) exportPage(ctx context.Context, entry Entry) Item {
	item := Item{Route: entry.Route, Path: entry.Path}
	body, err := e.cfg.Fetcher.Fetch(ctx, entry.Route)
	if err != nil {
		item.Err = newItemError(entry.Route, entry.Path, err)
		return item
	}
	if err := writeFile(filepath.Join(e.cfg.OutputDir, filepath.FromSlash(entry.Path)), body); err != nil {
		item.Err = newItemError(entry.Route, entry.Path, err)
		return item
	}
	item.Bytes = len(body)
	return item
}

// resetDir deletes dir and everything below it, then recreates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

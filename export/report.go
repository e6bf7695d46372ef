package export

import (
	"errors"
	"time"
)

// Item is the outcome of exporting one route, or of a rejected asset.
type Item struct {
	Route string // empty for assets
	// Path is the destination relative to the output root, slash separated.
	Path  string
	Bytes int
	Err   error
}

// Report summarizes an export run.
type Report struct {
	OutputDir string
	Pages     []Item
	Failed    []Item
	Assets    int
	Duration  time.Duration
}

// OK reports whether every route and asset was written.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the per-route failures, or returns nil when there were none.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, item := range r.Failed {
		errs = append(errs, item.Err)
	}
	return errors.Join(errs...)
}

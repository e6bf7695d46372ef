package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eringen/pagesmith/htmlmin"
	"github.com/eringen/pagesmith/sitedata"
)

// Options configures a Site.
type Options struct {
	Sources      sitedata.Sources
	TemplatesDir string
	// EnvFile is reloaded into the process environment before each render.
	EnvFile string
	// Helpers defaults to DefaultHelpers().
	Helpers Helpers
	// SkipMinify returns raw template output. Useful when debugging templates.
	SkipMinify bool
	Logger     *zap.Logger
}

// Page is one rendered route.
type Page struct {
	Route    string
	Template string
	HTML     []byte
}

// Site is the request pipeline: resolve, build context, render, minify.
// It is built once at startup and shared by all requests.
type Site struct {
	opts     Options
	renderer *Renderer
	minifier *htmlmin.Minifier
	logger   *zap.Logger

	mu     sync.RWMutex
	routes sitedata.RouteTable
}

// NewSite loads the route table, checks that the data documents parse and
// prepares the renderer. Configuration errors are returned as is so callers
// can stop at startup.
func NewSite(opts Options) (*Site, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Helpers == nil {
		opts.Helpers = DefaultHelpers()
	}
	routes, err := sitedata.LoadRoutes(opts.Sources)
	if err != nil {
		return nil, err
	}
	if _, err := sitedata.LoadData(opts.Sources); err != nil {
		return nil, err
	}
	s := &Site{
		opts:     opts,
		renderer: NewRenderer(opts.TemplatesDir, opts.Helpers, opts.Logger),
		minifier: htmlmin.New(),
		logger:   opts.Logger,
		routes:   routes,
	}
	s.logger.Info("site loaded", zap.Int("routes", len(routes)), zap.Strings("paths", routes.Paths()))
	return s, nil
}

// Routes returns a copy of the current route table.
func (s *Site) Routes() sitedata.RouteTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes.Clone()
}

// Sources returns where the site's documents are loaded from.
func (s *Site) Sources() sitedata.Sources {
	return s.opts.Sources
}

// Reload re-reads the route table, checks the data documents and drops
// compiled templates. On error the previous table stays in place.
func (s *Site) Reload() error {
	routes, err := sitedata.LoadRoutes(s.opts.Sources)
	if err != nil {
		return err
	}
	if _, err := sitedata.LoadData(s.opts.Sources); err != nil {
		return err
	}
	s.mu.Lock()
	s.routes = routes
	s.mu.Unlock()
	s.renderer.Invalidate()
	s.logger.Info("site reloaded", zap.Int("routes", len(routes)))
	return nil
}

// Resolve maps path to its template id without rendering.
func (s *Site) Resolve(path string) (string, error) {
	s.mu.RLock()
	routes := s.routes
	s.mu.RUnlock()
	return Resolve(path, routes, s.opts.TemplatesDir)
}

// Render produces the minified page for path. Errors wrap ErrRouteNotFound,
// ErrTemplateMissing or ErrRender.
func (s *Site) Render(path string) (Page, error) {
	route := NormalizePath(path)
	templateID, err := s.Resolve(route)
	if err != nil {
		return Page{}, err
	}

	if err := sitedata.ReloadEnv(s.opts.EnvFile); err != nil {
		return Page{}, newRenderError(route, templateID, err)
	}
	data, err := sitedata.LoadData(s.opts.Sources)
	if err != nil {
		return Page{}, newRenderError(route, templateID, err)
	}
	if keys := reservedKeys(data); len(keys) > 0 {
		s.logger.Warn("data keys shadowed by reserved context keys", zap.Strings("keys", keys))
	}

	out, err := s.renderer.Render(templateID, BuildContext(data))
	if err != nil {
		return Page{}, newRenderError(route, templateID, err)
	}
	if !s.opts.SkipMinify {
		if out, err = s.minifier.Minify(out); err != nil {
			return Page{}, newRenderError(route, templateID, err)
		}
	}

	s.logger.Debug("rendered route", zap.String("route", route), zap.String("template", templateID))
	return Page{Route: route, Template: templateID, HTML: []byte(out)}, nil
}

// Package pagesmith serves a site rendered from JSON data files and
// html/template templates, and exports it as static files.
//
// Routes, data and templates live on disk in a default directory that can be
// overridden per deployment. Data is re-read on every request, so edits show
// up without a restart; routes are reloaded explicitly or in watch mode.
package pagesmith

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith/contact"
	"github.com/eringen/pagesmith/engine"
)

// App is the central pagesmith application. It wires together the site
// pipeline, the contact service, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Site    *engine.Site
	Contact *contact.Service
	Logger  *zap.Logger

	helpers        engine.Helpers
	publisher      contact.Publisher
	contactLimiter *RateLimiter
	customRoutes   []func(*App)
	closers        []io.Closer
	watch          bool
	watchDebounce  time.Duration
	ready          bool
}

// New creates a new pagesmith App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:  cfg,
		Echo:    e,
		helpers: engine.DefaultHelpers(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup loads the site and registers middleware and routes. Start calls it;
// call it directly to use the App as an http.Handler without listening.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Logger == nil {
		logger, err := NewLogger(a.Config.Log)
		if err != nil {
			return fmt.Errorf("pagesmith: init logger: %w", err)
		}
		a.Logger = logger
	}

	site, err := engine.NewSite(engine.Options{
		Sources:      a.Config.Sources(),
		TemplatesDir: a.Config.TemplatesDir,
		EnvFile:      a.Config.EnvFile,
		Helpers:      a.helpers,
		SkipMinify:   a.Config.SkipMinify,
		Logger:       a.Logger.Named("site"),
	})
	if err != nil {
		return fmt.Errorf("pagesmith: load site: %w", err)
	}
	a.Site = site

	if err := a.setupContact(ctx); err != nil {
		return fmt.Errorf("pagesmith: init contact: %w", err)
	}

	if a.watch {
		w, err := a.installWatch(a.watchDebounce)
		if err != nil {
			return fmt.Errorf("pagesmith: init watch: %w", err)
		}
		a.closers = append(a.closers, w)
	}

	a.setupMiddleware()
	a.setupRoutes()
	a.ready = true
	return nil
}

// Start sets the App up and listens on Config.Addr until the server stops.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET(sitemapPath, a.handleSitemap)
	e.GET(robotsPath, a.handleRobots)

	if a.Contact != nil {
		if a.routed(ContactPath) {
			a.Logger.Warn("route table entry shares the contact path; POST and OPTIONS go to the contact endpoint",
				zap.String("path", ContactPath))
		}
		e.POST(ContactPath, a.handleContact)
		e.OPTIONS(ContactPath, a.handleContact)
	}

	for _, fn := range a.customRoutes {
		fn(a)
	}

	e.GET("/*", a.handlePage)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pagesmith: required environment variable %s is not set", key)
	}
	return v
}

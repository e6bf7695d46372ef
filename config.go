package pagesmith

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/itsatony/go-cuserr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/pagesmith/contact"
	"github.com/eringen/pagesmith/engine"
	"github.com/eringen/pagesmith/sitedata"
)

// ConfigFile is the server configuration file looked up in the project root.
const ConfigFile = "pagesmith.yaml"

// Asset precedence values for AssetsConfig.Prefer.
const (
	PreferOverride = "override"
	PreferDefault  = "default"
)

// Contact publisher names for ContactConfig.Publisher.
const (
	PublisherLog   = "log"
	PublisherStore = "store"
	PublisherSNS   = "sns"
	PublisherNone  = "none"
)

// SiteConfig holds all configuration for a pagesmith site.
type SiteConfig struct {
	Name string `yaml:"name"` // Site name (default "pagesmith")
	URL  string `yaml:"url"`  // Canonical URL (default "http://localhost:8000")
	Addr string `yaml:"addr"` // Listen address (default ":8000")

	Root         string `yaml:"root"`          // Project root (default ".")
	DefaultDir   string `yaml:"default_dir"`   // Built-in documents (default "<root>/site")
	OverrideDir  string `yaml:"override_dir"`  // Deployment documents (default "<root>")
	TemplatesDir string `yaml:"templates_dir"` // Templates root (default "<default_dir>/templates")
	EnvFile      string `yaml:"env_file"`      // Reloaded before each render (default "<root>/.env")
	SkipMinify   bool   `yaml:"skip_minify"`

	Assets  AssetsConfig  `yaml:"assets"`
	Export  ExportConfig  `yaml:"export"`
	Contact ContactConfig `yaml:"contact"`
	Log     LogConfig     `yaml:"log"`
}

// AssetsConfig locates static files served next to the routes.
type AssetsConfig struct {
	DefaultDir  string `yaml:"default_dir"`  // default "<default_dir>/assets"
	OverrideDir string `yaml:"override_dir"` // default "<root>/assets"
	// Prefer picks which directory wins when both hold the same file:
	// "override" (default) or "default".
	Prefer string `yaml:"prefer"`
}

// ExportConfig configures the static exporter.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"` // default "<root>/output"
	// BaseURL of a running server to crawl. Empty starts one in process.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // per request (default 10s)
	Retries int           `yaml:"retries"` // default 2
}

// ContactConfig configures the contact endpoint.
type ContactConfig struct {
	// AllowedOrigin defaults to the origin of SiteConfig.URL.
	AllowedOrigin string `yaml:"allowed_origin"`
	// Publisher is "log" (default), "store", "sns" or "none".
	Publisher string `yaml:"publisher"`
	StoreDSN  string `yaml:"store_dsn"` // default "<root>/data/contact.db"
	TopicARN  string `yaml:"topic_arn"`
	// RelayInterval is how often stored submissions are relayed to TopicARN
	// when Publisher is "store" and a topic is configured (default 1m).
	RelayInterval time.Duration `yaml:"relay_interval"`
	RateLimit     int           `yaml:"rate_limit"`  // submissions per window (default 5)
	RateWindow    time.Duration `yaml:"rate_window"` // default 1m
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // default "info"
	Format string `yaml:"format"` // "json" (default) or "console"
}

// LoadConfig reads the YAML file at path, if it exists, and applies
// environment overrides on top. Defaults are filled in by New.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, cuserr.WrapStdError(sitedata.ErrConfig, sitedata.ErrCodeConfig,
				fmt.Sprintf("invalid %s: %v", filepath.Base(path), err)).
				WithMetadata(sitedata.MetaKeyFile, filepath.Base(path))
		}
	case !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if cfg.Root == "" && filepath.Dir(path) != "." {
		cfg.Root = filepath.Dir(path)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() {
	c.Addr = EnvOr("PAGESMITH_ADDR", c.Addr)
	c.URL = EnvOr("SITE_URL", c.URL)
	c.Root = EnvOr("PAGESMITH_ROOT", c.Root)
	c.Log.Level = EnvOr("PAGESMITH_LOG_LEVEL", c.Log.Level)
	c.Log.Format = EnvOr("PAGESMITH_LOG_FORMAT", c.Log.Format)
	c.Assets.Prefer = EnvOr("PAGESMITH_ASSETS_PREFER", c.Assets.Prefer)
	c.Export.OutputDir = EnvOr("PAGESMITH_OUTPUT_DIR", c.Export.OutputDir)
	c.Export.BaseURL = EnvOr("PAGESMITH_EXPORT_BASE_URL", c.Export.BaseURL)
	c.Contact.AllowedOrigin = EnvOr("CONTACT_ALLOWED_ORIGIN", c.Contact.AllowedOrigin)
	c.Contact.Publisher = EnvOr("CONTACT_PUBLISHER", c.Contact.Publisher)
	c.Contact.StoreDSN = EnvOr("CONTACT_STORE_DSN", c.Contact.StoreDSN)
	c.Contact.TopicARN = EnvOr("CONTACT_TOPIC_ARN", c.Contact.TopicARN)
	if v, err := strconv.ParseBool(os.Getenv("PAGESMITH_SKIP_MINIFY")); err == nil {
		c.SkipMinify = v
	}
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "pagesmith"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8000"
	}
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.DefaultDir == "" {
		c.DefaultDir = filepath.Join(c.Root, "site")
	}
	if c.OverrideDir == "" {
		c.OverrideDir = c.Root
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = filepath.Join(c.DefaultDir, "templates")
	}
	if c.EnvFile == "" {
		c.EnvFile = filepath.Join(c.Root, ".env")
	}
	if c.Assets.DefaultDir == "" {
		c.Assets.DefaultDir = filepath.Join(c.DefaultDir, "assets")
	}
	if c.Assets.OverrideDir == "" {
		c.Assets.OverrideDir = filepath.Join(c.Root, "assets")
	}
	if c.Assets.Prefer != PreferDefault {
		c.Assets.Prefer = PreferOverride
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = filepath.Join(c.Root, "output")
	}
	if c.Export.Timeout == 0 {
		c.Export.Timeout = 10 * time.Second
	}
	if c.Export.Retries == 0 {
		c.Export.Retries = 2
	}
	if c.Contact.AllowedOrigin == "" {
		c.Contact.AllowedOrigin = originOf(c.URL)
	}
	if c.Contact.Publisher == "" {
		c.Contact.Publisher = PublisherLog
	}
	if c.Contact.StoreDSN == "" {
		c.Contact.StoreDSN = filepath.Join(c.Root, "data", "contact.db")
	}
	if c.Contact.RelayInterval == 0 {
		c.Contact.RelayInterval = time.Minute
	}
	if c.Contact.RateLimit == 0 {
		c.Contact.RateLimit = 5
	}
	if c.Contact.RateWindow == 0 {
		c.Contact.RateWindow = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Sources returns the document layers for the site loader.
func (c SiteConfig) Sources() sitedata.Sources {
	return sitedata.Sources{Root: c.Root, DefaultDir: c.DefaultDir, OverrideDir: c.OverrideDir}
}

// AssetDirs returns the asset directories, lowest precedence first.
func (c SiteConfig) AssetDirs() []string {
	if c.Assets.Prefer == PreferDefault {
		return []string{c.Assets.OverrideDir, c.Assets.DefaultDir}
	}
	return []string{c.Assets.DefaultDir, c.Assets.OverrideDir}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes, before the catch-all.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger instead of building one from LogConfig.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithHelpers adds template helpers to the default set.
func WithHelpers(h engine.Helpers) Option {
	return func(a *App) {
		a.helpers = a.helpers.With(h)
	}
}

// WithPublisher sets the contact publisher, overriding ContactConfig.Publisher.
func WithPublisher(p contact.Publisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

// WithWatch reloads routes and templates when site files change.
func WithWatch(debounce time.Duration) Option {
	return func(a *App) {
		a.watch = true
		a.watchDebounce = debounce
	}
}

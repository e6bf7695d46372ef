package pagesmith

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith/sitedata"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

func TestSetDefaults(t *testing.T) {
	cfg := SiteConfig{Root: "proj"}
	cfg.setDefaults()

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.URL)
	assert.Equal(t, filepath.Join("proj", "site"), cfg.DefaultDir)
	assert.Equal(t, "proj", cfg.OverrideDir)
	assert.Equal(t, filepath.Join("proj", "site", "templates"), cfg.TemplatesDir)
	assert.Equal(t, filepath.Join("proj", ".env"), cfg.EnvFile)
	assert.Equal(t, filepath.Join("proj", "output"), cfg.Export.OutputDir)
	assert.Equal(t, PreferOverride, cfg.Assets.Prefer)
	assert.Equal(t, "http://localhost:8000", cfg.Contact.AllowedOrigin)
	assert.Equal(t, PublisherLog, cfg.Contact.Publisher)
	assert.Equal(t, 10*time.Second, cfg.Export.Timeout)
	assert.Equal(t, []string{filepath.Join("proj", "site", "assets"), filepath.Join("proj", "assets")}, cfg.AssetDirs())
}

func TestAssetDirsPreferDefault(t *testing.T) {
	cfg := SiteConfig{Root: "proj", Assets: AssetsConfig{Prefer: PreferDefault}}
	cfg.setDefaults()
	assert.Equal(t, []string{filepath.Join("proj", "assets"), filepath.Join("proj", "site", "assets")}, cfg.AssetDirs())

	cfg = SiteConfig{Assets: AssetsConfig{Prefer: "bogus"}}
	cfg.setDefaults()
	assert.Equal(t, PreferOverride, cfg.Assets.Prefer)
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFile)
	writeFile(t, path, `
name: Portfolio
url: https://ada.dev/
addr: ":9000"
assets:
  prefer: default
export:
  timeout: 3s
  retries: 5
contact:
  publisher: store
  rate_window: 30s
log:
  format: console
`)
	t.Setenv("PAGESMITH_ADDR", ":9100")
	t.Setenv("CONTACT_ALLOWED_ORIGIN", "https://www.ada.dev")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio", cfg.Name)
	assert.Equal(t, ":9100", cfg.Addr, "environment wins over the file")
	assert.Equal(t, root, cfg.Root, "root defaults to the config file's directory")
	assert.Equal(t, PreferDefault, cfg.Assets.Prefer)
	assert.Equal(t, 3*time.Second, cfg.Export.Timeout)
	assert.Equal(t, 5, cfg.Export.Retries)
	assert.Equal(t, PublisherStore, cfg.Contact.Publisher)
	assert.Equal(t, 30*time.Second, cfg.Contact.RateWindow)
	assert.Equal(t, "https://www.ada.dev", cfg.Contact.AllowedOrigin)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("SITE_URL", "https://from-env.example")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example", cfg.URL)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	writeFile(t, path, "addr: [unterminated")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sitedata.ErrConfig))
	assert.Contains(t, err.Error(), ConfigFile)
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://example.com", originOf("https://example.com/blog/"))
	assert.Equal(t, "http://localhost:8000", originOf("http://localhost:8000"))
	assert.Equal(t, "not a url", originOf("not a url"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestSetupFailsOnBadRoutes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "site", "routes.json"), `{"/": `)
	app := New(SiteConfig{Root: root}, WithLogger(nopLogger()))
	err := app.Setup(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sitedata.ErrConfig))
	assert.NotContains(t, err.Error(), root)
}

func TestSetupFailsOnBadData(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "site", "routes.json"), `{"/": "index.html"}`)
	writeFile(t, filepath.Join(root, "site", "data.json"), `{"name": `)
	app := New(SiteConfig{Root: root}, WithLogger(nopLogger()))
	err := app.Setup(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sitedata.ErrConfig))
	assert.Contains(t, err.Error(), "data.json")
	assert.NotContains(t, err.Error(), root)
}

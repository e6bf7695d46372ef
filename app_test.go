package pagesmith

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eringen/pagesmith/contact"
)

const testOrigin = "https://example.com"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type memPublisher struct {
	mu   sync.Mutex
	subs []contact.Submission
}

func (p *memPublisher) Publish(_ context.Context, sub contact.Submission) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, sub)
	return nil
}

// newTestSite lays out a small site under a temp root.
func newTestSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "site", "routes.json"), `{
		"/": "index.html",
		"/about/": "about.html",
		"/notes.html": "notes.html",
		"/gone/": "gone.html",
		"/broken/": "broken.html"
	}`)
	writeFile(t, filepath.Join(root, "site", "data.json"), `{"title": "Home", "name": "Ada"}`)
	writeFile(t, filepath.Join(root, "site", "templates", "layouts", "base.html"),
		`{{define "base"}}<!DOCTYPE html><html><head><title>{{.title}}</title></head><body>{{block "content" .}}{{end}}</body></html>{{end}}`)
	writeFile(t, filepath.Join(root, "site", "templates", "index.html"),
		`{{template "base" .}}{{define "content"}}  <h1>  Hello,   {{.name}} </h1>  {{end}}`)
	writeFile(t, filepath.Join(root, "site", "templates", "about.html"), `<p>About {{.name}}</p>`)
	writeFile(t, filepath.Join(root, "site", "templates", "notes.html"), `<p>Notes</p>`)
	writeFile(t, filepath.Join(root, "site", "templates", "broken.html"), `<p>{{date_range "bogus"}}</p>`)
	writeFile(t, filepath.Join(root, "site", "assets", "css", "site.css"), "body{color:red}")
	writeFile(t, filepath.Join(root, "site", "assets", "logo.svg"), "<svg>default</svg>")
	writeFile(t, filepath.Join(root, "assets", "logo.svg"), "<svg>override</svg>")
	return root
}

func newTestApp(t *testing.T, root string, mutate ...func(*SiteConfig)) (*App, *memPublisher) {
	t.Helper()
	cfg := SiteConfig{
		Root: root,
		URL:  testOrigin,
		Contact: ContactConfig{
			RateLimit: 3,
		},
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	pub := &memPublisher{}
	app := New(cfg, WithLogger(zap.NewNop()), WithPublisher(pub))
	require.NoError(t, app.Setup(context.Background()))
	t.Cleanup(func() { _ = app.Close() })
	return app, pub
}

func get(app *App, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestServeRenderedRoute(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	rec := get(app, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Home</title>")
	assert.Contains(t, body, "Hello, Ada")
	assert.NotContains(t, body, "  ")

	rec = get(app, "/about/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>About Ada</p>", rec.Body.String())

	rec = get(app, "/notes.html")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeSeesDataEdits(t *testing.T) {
	root := newTestSite(t)
	app, _ := newTestApp(t, root)

	writeFile(t, filepath.Join(root, "data.json"), `{"name": "Grace"}`)
	rec := get(app, "/about/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>About Grace</p>", rec.Body.String())
}

func TestServeNotFound(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	rec := get(app, "/about")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route or file not found: /about")

	rec = get(app, "/gone/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Template not found: gone.html")
}

func TestServeRenderError(t *testing.T) {
	root := newTestSite(t)
	app, _ := newTestApp(t, root)

	rec := get(app, "/broken/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Error rendering template: ")
	assert.Contains(t, body, "bogus")
	assert.NotContains(t, body, root, "error pages must not expose filesystem paths")
}

func TestServeErrorsAsJSON(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	rec := get(app, "/nowhere", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Route or file not found: /nowhere", body["detail"])
}

func TestServeAssets(t *testing.T) {
	root := newTestSite(t)
	app, _ := newTestApp(t, root)

	rec := get(app, "/css/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{color:red}", rec.Body.String())
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	rec = get(app, "/logo.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg>override</svg>", rec.Body.String())

	rec = get(app, "/css")
	assert.Equal(t, http.StatusNotFound, rec.Code, "directories are not served")

	rec = get(app, "/../site/routes.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAssetsPreferDefault(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t), func(c *SiteConfig) { c.Assets.Prefer = PreferDefault })

	rec := get(app, "/logo.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg>default</svg>", rec.Body.String())
}

func TestSitemap(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	rec := get(app, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://example.com/</loc>")
	assert.Contains(t, body, "<loc>https://example.com/about/</loc>")
	assert.Contains(t, body, "<loc>https://example.com/notes.html</loc>")
	assert.Less(t, strings.Index(body, "/about/"), strings.Index(body, "/notes.html"))
}

func TestRobots(t *testing.T) {
	root := newTestSite(t)
	app, _ := newTestApp(t, root)

	rec := get(app, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://example.com/sitemap.xml")

	writeFile(t, filepath.Join(root, "assets", "robots.txt"), "User-agent: *\nDisallow: /")
	rec = get(app, "/robots.txt")
	assert.Equal(t, "User-agent: *\nDisallow: /", rec.Body.String())
}

func TestRouteTableClaimsBuiltinPaths(t *testing.T) {
	root := newTestSite(t)
	writeFile(t, filepath.Join(root, "routes.json"), `{
		"/sitemap.xml": "sitemap.html",
		"/robots.txt": "robots.html",
		"/api/contact": "about.html"
	}`)
	writeFile(t, filepath.Join(root, "site", "templates", "sitemap.html"), `<p>custom sitemap</p>`)
	writeFile(t, filepath.Join(root, "site", "templates", "robots.html"), `<p>custom robots</p>`)

	core, logs := observer.New(zap.WarnLevel)
	app := New(SiteConfig{Root: root, URL: testOrigin},
		WithLogger(zap.New(core)), WithPublisher(&memPublisher{}))
	require.NoError(t, app.Setup(context.Background()))
	t.Cleanup(func() { _ = app.Close() })

	rec := get(app, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>custom sitemap</p>", rec.Body.String())

	rec = get(app, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>custom robots</p>", rec.Body.String())

	assert.Equal(t, 1, logs.FilterField(zap.String("path", ContactPath)).Len())
}

func TestSecurityHeaders(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))
	rec := get(app, "/")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestSiteURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", SiteURL("https://example.com", "/"))
	assert.Equal(t, "https://example.com/about/", SiteURL("https://example.com/", "/about/"))
	assert.Equal(t, "https://example.com/blog/notes.html", SiteURL("https://example.com/blog", "notes.html"))
}

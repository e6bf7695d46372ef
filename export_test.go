package pagesmith

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pagesmith/export"
)

func TestAppExport(t *testing.T) {
	root := newTestSite(t)
	writeFile(t, filepath.Join(root, "site", "routes.json"), `{"/": "index.html", "/about/": "about.html", "/notes.html": "notes.html"}`)
	app, _ := newTestApp(t, root)

	report, err := app.Export(t.Context())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Len(t, report.Pages, 3)

	out := app.Config.Export.OutputDir
	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Hello, Ada")

	about, err := os.ReadFile(filepath.Join(out, "about", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>About Ada</p>", string(about))

	assert.FileExists(t, filepath.Join(out, "notes.html"))
	assert.FileExists(t, filepath.Join(out, "css", "site.css"))

	logo, err := os.ReadFile(filepath.Join(out, "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>override</svg>", string(logo))
}

func TestAppExportReportsFailures(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	report, err := app.Export(t.Context())
	require.NoError(t, err)
	require.Error(t, report.Err())
	assert.True(t, errors.Is(report.Err(), export.ErrExportItem))

	var failed []string
	for _, item := range report.Failed {
		failed = append(failed, item.Route)
	}
	assert.ElementsMatch(t, []string{"/gone/", "/broken/"}, failed)
	assert.FileExists(t, filepath.Join(app.Config.Export.OutputDir, "about", "index.html"))
}

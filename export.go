package pagesmith

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/pagesmith/export"
)

// Export writes the static site to Config.Export.OutputDir. Routes are
// fetched from Config.Export.BaseURL, or from an in-process server on a
// loopback port when no base URL is configured. Per-route failures are in
// the report; see Report.Err.
func (a *App) Export(ctx context.Context) (export.Report, error) {
	if err := a.Setup(ctx); err != nil {
		return export.Report{}, err
	}

	baseURL := a.Config.Export.BaseURL
	if baseURL == "" {
		url, stop, err := a.serveLoopback()
		if err != nil {
			return export.Report{}, err
		}
		defer stop()
		baseURL = url
	}

	fetcher := export.NewHTTPFetcher(baseURL)
	fetcher.Timeout = a.Config.Export.Timeout
	fetcher.Retries = a.Config.Export.Retries

	exp, err := export.New(export.Config{
		OutputDir: a.Config.Export.OutputDir,
		AssetDirs: a.Config.AssetDirs(),
		Fetcher:   fetcher,
		Logger:    a.Logger.Named("export"),
	})
	if err != nil {
		return export.Report{}, err
	}
	a.Logger.Info("exporting", zap.String("base_url", baseURL), zap.String("output", exp.OutputDir()))
	return exp.Export(ctx, a.Site.Routes())
}

// serveLoopback serves the App on an ephemeral loopback port until stop is
// called.
func (a *App) serveLoopback() (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("pagesmith: listen: %w", err)
	}
	srv := &http.Server{Handler: a.Echo, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("loopback server", zap.Error(err))
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith"
)

type serveOptions struct {
	addr  string
	watch bool
	dev   bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.addr, "addr", "", "listen address (overrides PAGESMITH_ADDR)")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "reload routes and templates when files change")
	fs.BoolVar(&opts.dev, "dev", false, "console logging at debug level, implies --watch")
	return cmd
}

func runServe(ctx context.Context, cfg pagesmith.SiteConfig, opts serveOptions) error {
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	var appOpts []pagesmith.Option
	if opts.dev {
		cfg.Log.Format = "console"
		cfg.Log.Level = "debug"
		opts.watch = true
	}
	if opts.watch {
		appOpts = append(appOpts, pagesmith.WithWatch(pagesmith.DefaultWatchDebounce))
	}

	app := pagesmith.New(cfg, appOpts...)
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Setup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		app.Logger.Warn("shutdown", zap.Error(err))
	}
	return <-errCh
}

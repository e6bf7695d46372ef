package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith"
	"github.com/eringen/pagesmith/export"
)

type exportOptions struct {
	output  string
	baseURL string
	verbose bool
}

// errExportFailed makes the command exit non-zero after the report has been
// printed.
var errExportFailed = errors.New("export finished with failures")

func newExportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the site as static files",
		Long: "Export fetches every route from a running server, or from one started in\n" +
			"process, and mirrors the responses into the output directory together with\n" +
			"the site's assets. The output directory is wiped first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cfg, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.output, "output", "o", "", "output directory (default <root>/output)")
	fs.StringVar(&opts.baseURL, "base-url", "", "crawl this server instead of starting one")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log every route")
	return cmd
}

func runExport(cmd *cobra.Command, cfg pagesmith.SiteConfig, opts exportOptions) error {
	if opts.output != "" {
		cfg.Export.OutputDir = opts.output
	}
	if opts.baseURL != "" {
		cfg.Export.BaseURL = opts.baseURL
	}
	cfg.Contact.Publisher = pagesmith.PublisherNone

	logger := zap.NewNop()
	if opts.verbose {
		l, err := pagesmith.NewLogger(pagesmith.LogConfig{Level: "info", Format: "console"})
		if err != nil {
			return err
		}
		logger = l
	}

	app := pagesmith.New(cfg, pagesmith.WithLogger(logger))
	defer app.Close()

	report, err := app.Export(cmd.Context())
	if err != nil {
		return err
	}

	printReport(newOutput(cmd.OutOrStdout()), report)
	if report.Err() != nil {
		return errExportFailed
	}
	return nil
}

func printReport(out *output, report export.Report) {
	out.println(out.heading("Export") + " " + out.muted(report.OutputDir))
	out.println(fmt.Sprintf("%s copied %d asset files", out.success("✓"), report.Assets))
	for _, item := range report.Pages {
		out.println(fmt.Sprintf("%s %s → %s", out.success("✓"), item.Route, item.Path))
	}
	for _, item := range report.Failed {
		if item.Route == "" {
			// Rejected assets carry their path in the error.
			out.println(fmt.Sprintf("%s %v", out.failure("✗"), item.Err))
			continue
		}
		out.println(fmt.Sprintf("%s %s: %v", out.failure("✗"), item.Route, item.Err))
	}
	summary := fmt.Sprintf("%d pages written, %d failed in %s",
		len(report.Pages), len(report.Failed), report.Duration.Round(time.Millisecond))
	if report.OK() {
		out.println(out.success(summary))
	} else {
		out.println(out.failure(summary))
	}
}

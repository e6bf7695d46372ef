package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/pagesmith"
)

func loadConfig(cmd *cobra.Command) (pagesmith.SiteConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return pagesmith.SiteConfig{}, err
	}
	return pagesmith.LoadConfig(path)
}

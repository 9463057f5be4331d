package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/config"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the configured version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := "unknown"
			if cfg, err := config.LoadFile(opts.configFile); err == nil {
				version = cfg.Version
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "costctl %s (%s)\n", version, runtime.Version())
			return err
		},
	}
}

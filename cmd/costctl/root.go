package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/api"
	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/internal/infrastructure"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "costctl",
		Short: "Operate the SAP cost-center mapping pipeline",
		Long: `costctl runs the classification pipeline, resolves cost-center codes
against the current reference tables, computes transaction fingerprints,
and imports reference tables from XLSX workbooks.

Configuration follows the server: config.toml, an optional
config.<COSTMAP_ENV>.toml overlay, and COSTMAP_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", config.BaseConfigFile, "path to the base configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newRunCmd(opts),
		newResolveCmd(opts),
		newFingerprintCmd(),
		newImportCmd(opts),
		newVersionCmd(opts),
	)

	return cmd
}

// withDomain starts the infrastructure, hands the domain systems to fn, and
// shuts everything down afterwards.
func withDomain(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, d *api.Domain) error) error {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	infra, err := infrastructure.New(cfg,
		infrastructure.WithLogOutput(cmd.ErrOrStderr()),
		infrastructure.WithLogLevel(level),
	)
	if err != nil {
		return err
	}

	if err := infra.Start(); err != nil {
		return err
	}
	infra.Lifecycle.WaitForStartup()

	defer func() {
		if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
			infra.Logger.Error("shutdown failed", "error", err)
		}
	}()

	domain := api.NewDomain(api.NewRuntime(cfg, infra), cfg)
	return fn(cmd.Context(), domain)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/api"
	"github.com/JaimeStill/costmap/internal/pipeline"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDomain(cmd, opts, func(ctx context.Context, d *api.Domain) error {
				summary := d.Pipeline.Run(ctx, pipeline.TriggerCLI)
				if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
					return err
				}
				if summary.Status != pipeline.StatusSuccess {
					return fmt.Errorf("pipeline run %s: %s", summary.Status, summary.Message)
				}
				return nil
			})
		},
	}
}

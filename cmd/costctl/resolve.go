package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/api"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <code>...",
		Short: "Resolve cost-center codes against the reference tables",
		Example: `  costctl resolve 10061000 300123456
  costctl resolve "3047119999.0"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDomain(cmd, opts, func(ctx context.Context, d *api.Domain) error {
				matches, err := d.Locations.Resolve(ctx, args...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), matches)
			})
		},
	}
}

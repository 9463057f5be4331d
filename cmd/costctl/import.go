package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/api"
	"github.com/JaimeStill/costmap/internal/locations"
)

type importOptions struct {
	hq    string
	floor string
	sheet string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import-mapping",
		Short: "Replace reference tables from XLSX workbooks",
		Long: `import-mapping reads the HQ and/or floor cost-center workbooks and replaces
the matching reference table. Header names are matched case-insensitively;
the first worksheet is used unless --sheet is given.`,
		Example: `  costctl import-mapping --hq hq.xlsx --floor floor.xlsx`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.hq == "" && opts.floor == "" {
				return errors.New("at least one of --hq or --floor is required")
			}

			return withDomain(cmd, root, func(ctx context.Context, d *api.Domain) error {
				var results []locations.ImportResult
				for _, src := range []struct{ kind, path string }{
					{locations.KindHQ, opts.hq},
					{locations.KindFloor, opts.floor},
				} {
					if src.path == "" {
						continue
					}
					result, err := importFile(ctx, d.Locations, src.kind, src.path, opts.sheet)
					if err != nil {
						return err
					}
					results = append(results, result)
				}
				return printJSON(cmd.OutOrStdout(), results)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.hq, "hq", "", "HQ mapping workbook (.xlsx)")
	flags.StringVar(&opts.floor, "floor", "", "floor mapping workbook (.xlsx)")
	flags.StringVar(&opts.sheet, "sheet", "", "worksheet name (default: first sheet)")

	return cmd
}

func importFile(ctx context.Context, sys locations.System, kind, path, sheet string) (locations.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return locations.ImportResult{}, fmt.Errorf("open %s workbook: %w", kind, err)
	}
	defer f.Close()

	result, err := sys.Import(ctx, kind, f, sheet)
	if err != nil {
		return locations.ImportResult{}, fmt.Errorf("import %s: %w", path, err)
	}
	return result, nil
}

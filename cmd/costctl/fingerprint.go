package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/costmap/internal/transactions"
)

type fingerprintOptions struct {
	document   string
	costCenter string
	amount     string
	date       string
	account    string
}

func newFingerprintCmd() *cobra.Command {
	opts := &fingerprintOptions{}

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Compute the deduplication fingerprint of one ledger line",
		Long: `fingerprint normalizes the given fields the same way the pipeline does
and prints the resulting MD5 fingerprint. Amounts accept German and English
notation.`,
		Example: `  costctl fingerprint --doc 5100000001 --kst 10061000 --amount "1.234,56" --date 2026-02-14 --account 6000100`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.document == "" {
				return errors.New("--doc is required")
			}

			raw := transactions.Raw{
				DocumentNumber: opts.document,
				CostCenter:     opts.costCenter,
				Amount:         opts.amount,
				BookingDate:    opts.date,
				GLAccount:      opts.account,
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), transactions.FingerprintRaw(raw))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.document, "doc", "", "document number (belegnummer)")
	flags.StringVar(&opts.costCenter, "kst", "", "cost center (kostenstelle)")
	flags.StringVar(&opts.amount, "amount", "", "amount in home currency")
	flags.StringVar(&opts.date, "date", "", "booking date, YYYY-MM-DD")
	flags.StringVar(&opts.account, "account", "", "G/L account (hauptbuchkonto)")

	return cmd
}

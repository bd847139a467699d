package main

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"jmstructural/collections"
	"jmstructural/config"
	"jmstructural/services"
)

// newRecalcCommand re-derives the stored totals of every quotation from its
// line items.
func newRecalcCommand(app *pocketbase.PocketBase, cfg *config.Config) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "recalc-quotations",
		Short: "Recompute stored quotation totals from their line items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := collections.Setup(app); err != nil {
				return err
			}
			calc := cfg.Calculator()

			if dryRun {
				quotations, err := app.FindAllRecords(services.QuotationsCollection)
				if err != nil {
					return fmt.Errorf("list quotations: %w", err)
				}
				stale := 0
				for _, q := range quotations {
					isStale, sheet, _, err := services.CheckQuotation(app, calc, q.Id)
					if err != nil {
						return err
					}
					if isStale {
						stale++
						fmt.Fprintf(cmd.OutOrStdout(), "%s: stored %s, computed %s\n",
							q.GetString("quotation_number"),
							services.FormatMoney(q.GetString("currency"), services.StoredTotals(q).GrandTotal),
							services.FormatMoney(q.GetString("currency"), sheet.Totals().GrandTotal))
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d quotations have stale totals\n", stale, len(quotations))
				return nil
			}

			fixed, err := services.RecalcAllQuotations(app, calc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d quotations\n", fixed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report stale quotations without writing")
	return cmd
}

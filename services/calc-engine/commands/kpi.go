package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"property_projection/pkg/core/format"
)

func KPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Print headline KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := run(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.KPIs)
			}

			k := res.KPIs
			fmt.Fprintf(out, "%-28s %d\n", "Break-even year (after tax)", k.BreakEvenYear)
			fmt.Fprintf(out, "%-28s %d\n", "Break-even year (pre tax)", k.PreTaxBreakEvenYear)
			fmt.Fprintf(out, "%-28s %s\n", "NPV", format.Currency(k.NPV))
			fmt.Fprintf(out, "%-28s %s\n", "DSCR", k.DSCR)
			fmt.Fprintf(out, "%-28s %s\n", "LVR", format.Percent(k.LVR, 1))
			fmt.Fprintf(out, "%-28s %s\n", "Monthly repayment", format.Currency(k.MonthlyRepayment))
			fmt.Fprintf(out, "%-28s %s\n", "Final property value", format.Compact(k.FinalPropertyValue))
			fmt.Fprintf(out, "%-28s %s\n", "Final equity", format.Compact(k.FinalEquity))
			for _, m := range k.Milestones {
				year := "-"
				if m.Reached {
					year = fmt.Sprintf("%d", m.Year)
				}
				fmt.Fprintf(out, "%-28s %s\n", m.Label, year)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print KPIs as JSON")

	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"property_projection/pkg/core/format"
)

func ProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the yearly projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := run(cmd)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Year\tValue\tLoan\tEquity\tNOI\tInterest\tPrincipal\tAfter tax\tCumulative\t")
			for _, p := range res.Projections {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
					p.Year,
					format.CurrencyWhole(p.PropertyValue),
					format.CurrencyWhole(p.LoanBalance),
					format.CurrencyWhole(p.Equity),
					format.CurrencyWhole(p.NOI),
					format.CurrencyWhole(p.InterestExpense),
					format.CurrencyWhole(p.PrincipalPayment),
					format.CurrencyWhole(p.AfterTaxCashflow),
					format.CurrencyWhole(p.CumulativeCashflow),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringP("output", "o", "table", "output format: table or json")

	return cmd
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func PresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List assumption presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := scenarios(cmd)
			if err != nil {
				return err
			}

			if name, _ := cmd.Flags().GetString("show"); name != "" {
				sc, err := set.Get(name)
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(sc)
				if err != nil {
					return fmt.Errorf("encode preset: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Name\tRent\tCapital\tInflation\tVacancy\tBuilt-in\tDescription")
			for _, sc := range set.List() {
				a := sc.Assumptions
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
					sc.Name, a.RentGrowth, a.CapitalGrowth, a.Inflation, a.Vacancy, sc.Builtin, sc.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("show", "", "print one preset as YAML")

	return cmd
}

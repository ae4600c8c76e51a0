package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"property_projection/pkg/core/report"
)

func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a Markdown or HTML report",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			f, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			res, property, err := run(cmd)
			if err != nil {
				return err
			}
			out, err := report.Render(f, property.Name, res.Projections, res.KPIs)
			if err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("out"); path != "" {
				if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().String("format", "markdown", "markdown or html")
	cmd.Flags().String("out", "", "write the report to this file instead of stdout")

	return cmd
}

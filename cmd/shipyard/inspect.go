package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shipyard/internal/document"
	"shipyard/pkg/domain"
)

type inspectReport struct {
	Name        string              `json:"name"`
	Success     bool                `json:"success"`
	Totals      *domain.Totals      `json:"totals,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

func newInspectCmd(c *cli) *cobra.Command {
	var fromLibrary, asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Load a design and print its totals and load diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Load(cmd.Context(), args[0], fromLibrary)
			if err != nil {
				return err
			}
			report := newInspectReport(args[0], res)
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				c.printReport(report)
			}
			if !res.Success {
				return fmt.Errorf("%s failed to load", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromLibrary, "library", false, "read the design from the library instead of the blob store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newInspectReport(name string, res document.LoadResult) inspectReport {
	report := inspectReport{Name: name, Success: res.Success, Diagnostics: res.Diagnostics()}
	if res.Design != nil {
		totals := res.Design.Totals()
		report.Name = res.Design.Name
		report.Totals = &totals
	}
	return report
}

func (c *cli) printReport(r inspectReport) {
	if r.Totals != nil {
		w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Design\t%s\n", r.Name)
		_, _ = fmt.Fprintf(w, "Hull points\t%.1f / %.1f\n", r.Totals.HullPointsUsed, r.Totals.HullPointsAvailable)
		_, _ = fmt.Fprintf(w, "Power\t%.1f draw / %.1f output\n", r.Totals.PowerDraw, r.Totals.PowerOutput)
		_, _ = fmt.Fprintf(w, "Cost\t%.1f\n", r.Totals.Cost)
		_ = w.Flush()
	}
	if len(r.Diagnostics) == 0 {
		c.printf("No diagnostics.\n")
		return
	}
	c.printf("Diagnostics (%d):\n", len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		c.printf("  %s\n", d)
	}
}

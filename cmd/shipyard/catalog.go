package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shipyard/pkg/domain"
)

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the component catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list [category]",
		Short: "List catalog types, optionally for one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			categories := c.app.Catalog.Categories()
			if len(args) == 1 {
				categories = []domain.Category{domain.Category(args[0])}
			}
			w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "CATEGORY\tID\tNAME\tHULL POINTS\tCOST")
			var rows int
			for _, cat := range categories {
				for _, def := range c.app.Catalog.List(cat) {
					rows++
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\n", cat, def.ID, def.Name, hullPointsLabel(def), def.Cost)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if rows == 0 && len(args) == 1 {
				return fmt.Errorf("no catalog entries for category %q", args[0])
			}
			return nil
		},
	})
	return cmd
}

func hullPointsLabel(def domain.TypeDefinition) string {
	switch {
	case def.Scalable:
		return fmt.Sprintf("scalable (min %g)", def.MinSize)
	case def.HullPercent > 0:
		return fmt.Sprintf("%g%%", def.HullPercent)
	default:
		return fmt.Sprintf("%g", def.HullPoints)
	}
}

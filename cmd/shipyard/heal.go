package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shipyard/pkg/domain"
)

func newHealCmd(c *cli) *cobra.Command {
	var fromLibrary bool
	var out string
	cmd := &cobra.Command{
		Use:   "heal <name>",
		Short: "Load a design, repairing what can be repaired, and write it back in the current format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if out == "" {
				out = name
			}
			ws := c.app.NewWorkspace("")
			defer ws.Close()

			res, err := ws.Open(ctx, c.reader(fromLibrary), name)
			if err != nil {
				return err
			}
			for _, d := range res.Diagnostics() {
				c.printf("%s\n", d)
			}
			if !res.Success {
				return fmt.Errorf("%s cannot be healed", name)
			}
			if res.Has(domain.CodeMigrationSkipped) {
				return fmt.Errorf("%s cannot be healed: defense quantities are still in units", name)
			}

			if fromLibrary {
				data, err := c.app.Engine.Encode(ctx, ws.Design())
				if err != nil {
					return err
				}
				if _, err := c.app.Library.Put(ctx, out, data); err != nil {
					return err
				}
			} else if err := <-ws.Save(ctx, out); err != nil {
				return err
			}
			c.printf("Healed %s -> %s (%d warnings)\n", name, out, len(res.Warnings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromLibrary, "library", false, "heal a library design in place of a blob file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "target name (defaults to the source name)")
	return cmd
}

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newLibraryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the named design library",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored designs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				entries, err := c.app.Library.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "NAME\tVERSION\tSIZE\tMODIFIED")
				for _, e := range entries {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Name, e.Version, e.Size, e.ModifiedAt.Format(time.RFC3339))
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "put <name> <file>",
			Short: "Store a design file from the blob store under name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := c.app.Files.ReadFile(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				entry, err := c.app.Library.Put(cmd.Context(), args[0], data)
				if err != nil {
					return err
				}
				c.printf("Stored %s (version %s, %d bytes)\n", entry.Name, entry.Version, entry.Size)
				return nil
			},
		},
		newLibraryGetCmd(c),
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Remove a design from the library",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ok, err := c.app.Library.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("design %s not found", args[0])
				}
				c.printf("Deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newLibraryGetCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored design, or write it to the blob store with --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := c.app.Library.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out != "" {
				return c.app.Files.WriteFile(cmd.Context(), out, data)
			}
			_, err = c.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "blob file to write instead of printing")
	return cmd
}

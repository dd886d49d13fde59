package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTargetsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List configured targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDRIVER\tRESOURCE\tHOST\tIMAGE")
			for _, t := range env.Targets {
				host := t.Resource.Host
				if host == "" {
					host = "-"
				}
				image := t.Driver.Image
				if image == "" {
					image = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Driver.Kind, t.Resource.Kind, host, image)
			}
			return w.Flush()
		},
	}
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phishguard/internal/features"
)

func NewFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Print the ordered feature catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tSOURCE")
			for i, f := range features.Catalog() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, f.Name, f.Source)
			}
			return tw.Flush()
		},
	}
}

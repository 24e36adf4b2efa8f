package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jonathan/hired/internal/types"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the built-in job categories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME")
		for _, c := range types.Categories {
			fmt.Fprintf(w, "%s\t%s\n", c.Slug, c.Name)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

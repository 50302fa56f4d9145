package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/insight-scraper/internal/templates"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List the available analysis goals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := templates.LoadDefault()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GROUP\tID\tLABEL")
		for _, t := range reg.List() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Group, t.ID, t.Label)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(goalsCmd)
}

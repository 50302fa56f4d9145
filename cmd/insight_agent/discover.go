package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [--query Q | query...]",
	Short: "Print the URLs a #google directive would analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(discoverQuery)
		if query == "" {
			query = strings.TrimSpace(strings.Join(args, " "))
		}
		if query == "" {
			return fmt.Errorf("a search query is required")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.openDiscovery(ctx); err != nil {
			return err
		}
		if a.discoverer == nil {
			return fmt.Errorf("source discovery is not configured: set %s and %s",
				a.cfg.Discovery.APIKeySecret, a.cfg.Discovery.EngineIDSecret)
		}

		urls, err := a.discoverer.Discover(ctx, query)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}

var discoverQuery string

func init() {
	discoverCmd.Flags().StringVarP(&discoverQuery, "query", "q", "", "Search query")
	rootCmd.AddCommand(discoverCmd)
}

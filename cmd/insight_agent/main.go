// Package main provides the entry point for the insight agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/insight-scraper/internal/config"
)

var (
	v          = config.New()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "insight_agent",
	Short: "Web scraping and LLM insight extraction",
	Long: `insight_agent fetches web pages, asks Gemini to extract structured business
insights for a chosen analysis goal, and stores every finding in PostgreSQL.

Settings come from insight.yaml, INSIGHT_* environment variables and flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./insight.yaml or $HOME/.insight/insight.yaml)")
	rootCmd.PersistentFlags().Bool("dev-log", false, "Use human-readable development logging")
	_ = v.BindPFlag("log.development", rootCmd.PersistentFlags().Lookup("dev-log"))
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

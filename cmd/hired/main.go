// Package main provides the hired command: the interview practice HTTP API and a terminal client.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hired",
	Short: "AI mock interview practice",
	Long: `hired runs mock job interviews: it generates questions for a job category, reads them aloud,
transcribes recorded answers and scores them with a language model.

Run "hired serve" for the HTTP API or "hired practice" for a terminal interview.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables override it)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

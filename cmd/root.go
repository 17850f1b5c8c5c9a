package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "soil-scout",
	Short: "Scrape and analyze soil nutrient data from the Soil Health Dashboard",
	Long: `soil-scout pulls macro and micro nutrient tables from soilhealth.dac.gov.in,
saves them as CSV files under your output folder, consolidates them into a
single cleaned dataset (CSV + XLSX + SQLite) and can summarize the results.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

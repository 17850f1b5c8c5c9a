package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/opener"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the output folder in the file browser",
	Run: func(cmd *cobra.Command, args []string) {
		appCfg, err := config.GetAppConfig()
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		if err := (opener.System{}).Open(appCfg.OutputDir); err != nil {
			log.Fatalf("Failed to open folder: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

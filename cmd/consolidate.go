package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/db"
	"agridata-labs/soil-scout/internal/opener"
	"agridata-labs/soil-scout/internal/pipeline"
)

var consolidateNoOpen bool

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge the raw CSV tree into one cleaned dataset",
	Long: `Reads every <block>_macro.csv / <block>_micro.csv pair under the raw data
folder, joins them per village, standardizes columns and writes a single
consolidated CSV and XLSX plus the SQLite records.`,
	Run: func(cmd *cobra.Command, args []string) {
		runConsolidate()
	},
}

func init() {
	consolidateCmd.Flags().BoolVar(&consolidateNoOpen, "no-open", false, "Do not open the output folder when done")
	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate() {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	var open opener.FolderOpener
	if !consolidateNoOpen {
		open = opener.System{}
	}

	records, err := pipeline.Consolidate(appCfg.OutputDir, database, open)
	if err != nil {
		log.Fatalf("Consolidation failed: %v", err)
	}
	log.Printf("SUCCESS: consolidated %d records.", len(records))
}

package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/db"
	"agridata-labs/soil-scout/internal/opener"
	"agridata-labs/soil-scout/internal/pipeline"
	"agridata-labs/soil-scout/internal/scraper"
)

var (
	scrapeNoOpen bool
	scrapeDryRun bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch nutrient tables and save them locally",
	Long: `Connects to the Soil Health Dashboard, walks the year/state/district/block
dropdowns, saves every macro and micro nutrient table as a CSV under the
output folder, stores consolidated records in SQLite and opens the folder.`,
	Run: func(cmd *cobra.Command, args []string) {
		runScrape()
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeNoOpen, "no-open", false, "Do not open the output folder when done")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "Fetch and parse only, write nothing")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape() {
	// 1. Load Config
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	siteCfg, err := config.LoadSiteConfig(appCfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load site config: %v", err)
	}

	if scrapeDryRun {
		tables, err := scraper.Run(context.Background(), siteCfg)
		if err != nil {
			log.Fatalf("Scraping failed: %v", err)
		}
		log.Printf("Dry run: %d tables fetched, nothing written.", len(tables))
		return
	}

	// 2. Connect to DB
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	// 3. Build the source the config asks for
	source, err := scraper.NewSource(siteCfg)
	if err != nil {
		log.Fatalf("Scraper error: %v", err)
	}

	var open opener.FolderOpener
	if !scrapeNoOpen {
		open = opener.System{}
	}

	// 4. Run the pipeline: fetch -> parse -> write -> store -> open
	result, err := pipeline.Scrape(context.Background(), source, appCfg.OutputDir, database, open)
	if err != nil {
		log.Fatalf("Scraping failed: %v", err)
	}

	log.Printf("SUCCESS: %d tables fetched, %d files written, %d records upserted.",
		result.Tables, len(result.RawFiles), result.Records)
}

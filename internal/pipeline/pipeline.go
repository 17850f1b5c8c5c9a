// Package pipeline runs the sequential scrape and consolidate flows:
// fetch, parse, write, store, then open the output folder. A folder-open
// failure never loses the saved data.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"agridata-labs/soil-scout/internal/consolidate"
	store "agridata-labs/soil-scout/internal/db"
	"agridata-labs/soil-scout/internal/export"
	"agridata-labs/soil-scout/internal/models"
	"agridata-labs/soil-scout/internal/opener"
	"agridata-labs/soil-scout/internal/scraper"
)

var logger = log.New(os.Stdout, "PIPELINE: ", log.LstdFlags|log.Lshortfile)

// ScrapeResult reports what a scrape run produced.
type ScrapeResult struct {
	Tables   int
	RawFiles []string
	Records  int64
}

// Scrape fetches every table the source can see, writes the raw CSV tree,
// upserts consolidated records into the database and opens the output
// folder. Nothing is written unless the fetch succeeds.
func Scrape(ctx context.Context, source scraper.NutrientSource, outputDir string, database *sql.DB, open opener.FolderOpener) (ScrapeResult, error) {
	var result ScrapeResult

	tables, err := source.FetchTables(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch failed: %w", err)
	}
	result.Tables = len(tables)
	if len(tables) == 0 {
		logger.Println("Source returned no tables, nothing to save.")
		return result, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("%w: cannot create output dir %s: %v", export.ErrFilesystem, outputDir, err)
	}

	for _, t := range tables {
		path, err := export.WriteRawTable(outputDir, t)
		if err != nil {
			return result, err
		}
		result.RawFiles = append(result.RawFiles, path)
	}

	if database != nil {
		records := consolidate.FromTables(tables)
		count, err := store.SaveRecords(database, records)
		if err != nil {
			return result, fmt.Errorf("failed to save records: %w", err)
		}
		result.Records = count
	}

	OpenFolder(open, outputDir)
	return result, nil
}

// Consolidate reads the raw tree, writes the merged CSV and XLSX and opens
// the output folder.
func Consolidate(outputDir string, database *sql.DB, open opener.FolderOpener) ([]models.NutrientRecord, error) {
	records, err := consolidate.Run(outputDir)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		logger.Println("No records found in raw data, nothing to consolidate.")
		return nil, nil
	}

	if _, err := export.WriteConsolidatedCSV(outputDir, records); err != nil {
		return nil, err
	}
	if _, err := export.WriteConsolidatedXLSX(outputDir, records); err != nil {
		return nil, err
	}

	if database != nil {
		if _, err := store.SaveRecords(database, records); err != nil {
			return nil, fmt.Errorf("failed to save records: %w", err)
		}
	}

	OpenFolder(open, outputDir)
	return records, nil
}

// OpenFolder triggers the OS file browser and swallows failures: the scraped
// data is already on disk and must not be lost to a cosmetic error.
func OpenFolder(open opener.FolderOpener, path string) {
	if open == nil {
		return
	}
	if err := open.Open(path); err != nil {
		logger.Printf("Warning: could not open folder %s: %v", path, err)
	}
}

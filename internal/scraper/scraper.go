package scraper

import (
	"context"
	"fmt"
	"log"
	"os"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/models"
)

var logger = log.New(os.Stdout, "SCRAPER: ", log.LstdFlags|log.Lshortfile)

// NutrientSource is the stable boundary between the live site and the rest
// of the pipeline. The true extraction rules live behind it, so they can be
// adjusted against the site without touching export, consolidation or
// storage.
type NutrientSource interface {
	FetchTables(ctx context.Context) ([]models.NutrientTable, error)
}

// NewSource builds the NutrientSource the config asks for.
func NewSource(cfg *config.SiteConfig) (NutrientSource, error) {
	switch cfg.FetchMode {
	case "browser":
		return NewBrowserSource(cfg), nil
	case "http":
		return NewHTTPSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch_mode '%s' (want browser or http)", cfg.FetchMode)
	}
}

// Run fetches every nutrient table the configured source can see.
func Run(ctx context.Context, cfg *config.SiteConfig) ([]models.NutrientTable, error) {
	source, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	tables, err := source.FetchTables(ctx)
	if err != nil {
		return nil, err
	}
	logger.Printf("Fetched %d nutrient tables.", len(tables))
	return tables, nil
}

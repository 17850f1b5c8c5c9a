package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/models"
)

// HTTPSource fetches a directly addressable table page with a plain GET.
// Useful when the nutrient grids are reachable without driving the dropdown
// UI; the location context comes from config since the page carries none.
type HTTPSource struct {
	cfg    *config.SiteConfig
	client *resty.Client
}

func NewHTTPSource(cfg *config.SiteConfig) *HTTPSource {
	return &HTTPSource{
		cfg:    cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

func (s *HTTPSource) FetchTables(ctx context.Context) ([]models.NutrientTable, error) {
	url := s.cfg.TableURL
	if url == "" {
		url = s.cfg.DashboardURL
	}

	logger.Printf("Fetching: %s", url)
	res, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: GET %s returned %s", ErrNetwork, url, res.Status())
	}

	html := string(res.Body())
	loc := models.Location{
		Year:     s.cfg.Location.Year,
		State:    s.cfg.Location.State,
		District: s.cfg.Location.District,
		Block:    s.cfg.Location.Block,
	}

	var tables []models.NutrientTable
	macro, err := ParseTable(html, s.cfg.Selectors.MacroTable)
	if err == nil {
		tables = append(tables, models.NutrientTable{Location: loc, Kind: models.KindMacro, Table: macro})
	} else {
		logger.Printf("No macro table on page: %v", err)
	}
	micro, err := ParseTable(html, s.cfg.Selectors.MicroTable)
	if err == nil {
		tables = append(tables, models.NutrientTable{Location: loc, Kind: models.KindMicro, Table: micro})
	} else {
		logger.Printf("No micro table on page: %v", err)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: page at %s contains no nutrient tables", ErrParse, url)
	}
	return tables, nil
}

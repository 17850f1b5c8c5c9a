package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/models"
)

// BrowserSource drives a headless browser through the dashboard's cascading
// year/state/district/block dropdowns and lifts the macro and micro nutrient
// tables for every combination it reaches.
type BrowserSource struct {
	cfg *config.SiteConfig
}

func NewBrowserSource(cfg *config.SiteConfig) *BrowserSource {
	return &BrowserSource{cfg: cfg}
}

type dropdownOption struct {
	value string
	text  string
}

func (s *BrowserSource) FetchTables(ctx context.Context) ([]models.NutrientTable, error) {
	logger.Println("Launching headless browser...")
	browser, err := launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch browser: %v", ErrNetwork, err)
	}
	defer browser.MustClose()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open page: %v", ErrNetwork, err)
	}
	page = page.Context(ctx).Timeout(90 * time.Second)

	sel := s.cfg.Selectors
	logger.Printf("Navigating to: %s", s.cfg.DashboardURL)
	if err := rod.Try(func() {
		page.MustNavigate(s.cfg.DashboardURL)
		page.MustWaitStable()
		page.MustElement(sel.YearDropdown)
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to load dashboard: %v", ErrNetwork, err)
	}

	years, err := s.dropdownOptions(page, sel.YearDropdown)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: year dropdown offered no options", ErrParse)
	}

	var tables []models.NutrientTable
	for _, year := range years {
		if !s.wantYear(year.text) {
			continue
		}
		logger.Printf("Processing year: %s", year.text)
		if err := s.selectOption(page, sel.YearDropdown, year.value); err != nil {
			return nil, err
		}

		states, err := s.dropdownOptions(page, sel.StateDropdown)
		if err != nil {
			return nil, err
		}
		for _, state := range states {
			logger.Printf("  Processing state: %s", state.text)
			if err := s.selectOption(page, sel.StateDropdown, state.value); err != nil {
				return nil, err
			}

			districts, err := s.dropdownOptions(page, sel.DistrictDropdown)
			if err != nil {
				return nil, err
			}
			for _, district := range districts {
				logger.Printf("    Processing district: %s", district.text)
				if err := s.selectOption(page, sel.DistrictDropdown, district.value); err != nil {
					return nil, err
				}

				blocks, err := s.dropdownOptions(page, sel.BlockDropdown)
				if err != nil {
					return nil, err
				}
				for _, block := range blocks {
					logger.Printf("      Processing block: %s", block.text)
					if err := s.selectOption(page, sel.BlockDropdown, block.value); err != nil {
						return nil, err
					}

					loc := models.Location{
						Year:     year.text,
						State:    state.text,
						District: district.text,
						Block:    block.text,
					}
					tables = append(tables, s.blockTables(page, loc)...)
				}
			}
		}
	}

	return tables, nil
}

// blockTables grabs the macro and micro tables for the currently selected
// block. A missing table is logged and skipped so one bad block does not
// sink the whole run.
func (s *BrowserSource) blockTables(page *rod.Page, loc models.Location) []models.NutrientTable {
	sel := s.cfg.Selectors
	var out []models.NutrientTable

	macro, err := s.grabTable(page, sel.MacroTab, sel.MacroTableView, sel.MacroTable)
	if err != nil {
		logger.Printf("      No macro table for block '%s': %v", loc.Block, err)
	} else {
		out = append(out, models.NutrientTable{Location: loc, Kind: models.KindMacro, Table: macro})
	}

	micro, err := s.grabTable(page, sel.MicroTab, sel.MicroTableView, sel.MicroTable)
	if err != nil {
		logger.Printf("      No micro table for block '%s': %v", loc.Block, err)
	} else {
		out = append(out, models.NutrientTable{Location: loc, Kind: models.KindMicro, Table: micro})
	}

	return out
}

// grabTable switches to a nutrient tab, clicks its Table View toggle and
// parses the rendered grid.
func (s *BrowserSource) grabTable(page *rod.Page, tabSel, viewSel, tableSel string) (models.Table, error) {
	if tabSel != "" {
		// Tab may already be active, a failed click is not fatal.
		_ = rod.Try(func() {
			page.Timeout(5 * time.Second).MustElement(tabSel).MustClick()
			page.MustWaitStable()
		})
	}
	if viewSel != "" {
		_ = rod.Try(func() {
			page.Timeout(5 * time.Second).MustElement(viewSel).MustClick()
			page.MustWaitStable()
		})
	}

	var html string
	err := rod.Try(func() {
		html = page.Timeout(20 * time.Second).MustElement(tableSel).MustHTML()
	})
	if err != nil {
		return models.Table{}, fmt.Errorf("%w: table '%s' did not render: %v", ErrParse, tableSel, err)
	}
	return ParseTable(html, "table")
}

// dropdownOptions reads a <select>'s options, dropping the placeholder
// entries the dashboard uses ("0", "select").
func (s *BrowserSource) dropdownOptions(page *rod.Page, selector string) ([]dropdownOption, error) {
	var opts []dropdownOption
	err := rod.Try(func() {
		for _, el := range page.MustElement(selector).MustElements("option") {
			value := el.MustProperty("value").String()
			text := strings.TrimSpace(el.MustText())
			if value == "" || value == "0" || strings.EqualFold(value, "select") || strings.EqualFold(text, "select") {
				continue
			}
			opts = append(opts, dropdownOption{value: value, text: text})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dropdown '%s' not readable: %v", ErrParse, selector, err)
	}
	return opts, nil
}

// selectOption picks an option by value and waits for the page to settle so
// the dependent dropdowns repopulate.
func (s *BrowserSource) selectOption(page *rod.Page, selector, value string) error {
	err := rod.Try(func() {
		el := page.MustElement(selector)
		if err := el.Select([]string{fmt.Sprintf(`option[value=%q]`, value)}, true, rod.SelectorTypeCSSSector); err != nil {
			panic(err)
		}
		page.MustWaitStable()
	})
	if err != nil {
		return fmt.Errorf("%w: could not select '%s' in '%s': %v", ErrNetwork, value, selector, err)
	}
	return nil
}

func (s *BrowserSource) wantYear(year string) bool {
	if len(s.cfg.Years) == 0 {
		return true
	}
	for _, y := range s.cfg.Years {
		if y == year {
			return true
		}
	}
	return false
}

func launchBrowser() (*rod.Browser, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, err
	}
	return rod.New().ControlURL(u).MustConnect(), nil
}

// Package consolidate turns the raw per-block CSV tree into a single cleaned
// dataset: macro and micro tables are joined per village, headers are
// standardized and measurements coerced to numbers.
package consolidate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"agridata-labs/soil-scout/internal/export"
	"agridata-labs/soil-scout/internal/models"
)

var logger = log.New(os.Stdout, "CONSOLIDATE: ", log.LstdFlags|log.Lshortfile)

// Run walks <outputDir>/raw and returns the consolidated records.
func Run(outputDir string) ([]models.NutrientRecord, error) {
	rawDir := filepath.Join(outputDir, export.RawDirName)
	if _, err := os.Stat(rawDir); err != nil {
		return nil, fmt.Errorf("raw data directory %s not found (run scrape first): %w", rawDir, err)
	}

	var records []models.NutrientRecord

	years, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", rawDir, err)
	}
	for _, year := range years {
		if !year.IsDir() {
			continue
		}
		yearPath := filepath.Join(rawDir, year.Name())
		states, err := os.ReadDir(yearPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", yearPath, err)
		}
		for _, state := range states {
			if !state.IsDir() {
				continue
			}
			statePath := filepath.Join(yearPath, state.Name())
			districts, err := os.ReadDir(statePath)
			if err != nil {
				return nil, fmt.Errorf("cannot read %s: %w", statePath, err)
			}
			for _, district := range districts {
				if !district.IsDir() {
					continue
				}
				districtPath := filepath.Join(statePath, district.Name())
				loc := models.Location{
					Year:     year.Name(),
					State:    unsanitize(state.Name()),
					District: unsanitize(district.Name()),
				}
				recs, err := consolidateDistrict(districtPath, loc)
				if err != nil {
					return nil, err
				}
				records = append(records, recs...)
			}
		}
	}

	logger.Printf("Consolidated %d records from %s", len(records), rawDir)
	return records, nil
}

// FromTables merges freshly scraped tables without a disk round trip,
// grouping macro and micro per location. Used by the scrape pipeline to feed
// the database in the same run.
func FromTables(tables []models.NutrientTable) []models.NutrientRecord {
	type pair struct {
		macro *models.Table
		micro *models.Table
	}
	byLoc := map[models.Location]*pair{}
	var order []models.Location

	for i := range tables {
		t := &tables[i]
		p, ok := byLoc[t.Location]
		if !ok {
			p = &pair{}
			byLoc[t.Location] = p
			order = append(order, t.Location)
		}
		if t.Kind == models.KindMacro {
			p.macro = &t.Table
		} else {
			p.micro = &t.Table
		}
	}

	var records []models.NutrientRecord
	for _, loc := range order {
		p := byLoc[loc]
		records = append(records, MergeTables(loc, p.macro, p.micro)...)
	}
	return records
}

// consolidateDistrict pairs the _macro/_micro files per block in one
// district directory and merges each pair. The district's meta file supplies
// the true dashboard labels; files without an entry (dropped in by hand) fall
// back to the unsanitized path names.
func consolidateDistrict(dir string, loc models.Location) ([]models.NutrientRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	meta, err := export.ReadMeta(dir)
	if err != nil {
		return nil, err
	}

	type pair struct {
		loc   models.Location
		macro *models.Table
		micro *models.Table
	}
	blocks := map[string]*pair{}
	var order []string

	for _, e := range entries {
		name := e.Name()
		var block string
		var kind models.NutrientKind
		switch {
		case strings.HasSuffix(name, "_macro.csv"):
			block, kind = strings.TrimSuffix(name, "_macro.csv"), models.KindMacro
		case strings.HasSuffix(name, "_micro.csv"):
			block, kind = strings.TrimSuffix(name, "_micro.csv"), models.KindMicro
		default:
			continue
		}

		table, err := export.ReadCSV(filepath.Join(dir, name))
		if err != nil {
			logger.Printf("Skipping unreadable file %s: %v", name, err)
			continue
		}

		p, ok := blocks[block]
		if !ok {
			blockLoc, recorded := meta[name]
			if !recorded {
				blockLoc = loc
				blockLoc.Block = unsanitize(block)
			}
			p = &pair{loc: blockLoc}
			blocks[block] = p
			order = append(order, block)
		}
		if kind == models.KindMacro {
			p.macro = &table
		} else {
			p.micro = &table
		}
	}

	var records []models.NutrientRecord
	for _, block := range order {
		p := blocks[block]
		records = append(records, MergeTables(p.loc, p.macro, p.micro)...)
	}
	return records, nil
}

// MergeTables outer-joins a block's macro and micro tables on the village
// column. A table may be nil when only one kind was scraped.
func MergeTables(loc models.Location, macro, micro *models.Table) []models.NutrientRecord {
	byVillage := map[string]*models.NutrientRecord{}
	var order []string

	get := func(village string) *models.NutrientRecord {
		if r, ok := byVillage[village]; ok {
			return r
		}
		r := &models.NutrientRecord{
			Year:     loc.Year,
			State:    loc.State,
			District: loc.District,
			Block:    loc.Block,
			Village:  village,
		}
		byVillage[village] = r
		order = append(order, village)
		return r
	}

	for _, t := range []*models.Table{macro, micro} {
		if t == nil {
			continue
		}
		applyTable(t, get)
	}

	records := make([]models.NutrientRecord, 0, len(order))
	for _, v := range order {
		records = append(records, *byVillage[v])
	}
	return records
}

func applyTable(t *models.Table, get func(string) *models.NutrientRecord) {
	vIdx := villageIndex(t.Headers)
	if vIdx < 0 {
		logger.Printf("Table has no village column (headers: %v), skipping", t.Headers)
		return
	}

	// Resolve each header to a standardized nutrient column once.
	columns := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		if i == vIdx {
			continue
		}
		if col, ok := nutrientColumn(NormalizeHeader(h)); ok {
			columns[i] = col
		}
	}

	for _, row := range t.Rows {
		if vIdx >= len(row) {
			continue
		}
		village := strings.TrimSpace(row[vIdx])
		if village == "" {
			continue
		}
		rec := get(village)
		for i, cell := range row {
			if i == vIdx || i >= len(columns) || columns[i] == "" {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				rec.SetValue(columns[i], v)
			}
		}
	}
}

// villageIndex finds the join column: the dashboard labels it Village or
// Gram Panchayath depending on the view.
func villageIndex(headers []string) int {
	for i, h := range headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "village") || strings.Contains(lower, "gram") {
			return i
		}
	}
	return -1
}

// NormalizeHeader converts a raw header to snake_case: lowercased, spaces and
// dashes to underscores, '%' spelled out, other punctuation dropped.
func NormalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "%", "percent")
	s = strings.ReplaceAll(s, "/", "_per_")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nutrientColumn maps a normalized header to its standardized column. Both
// full names and the chemical shorthand the site uses are recognized.
func nutrientColumn(normalized string) (string, bool) {
	switch normalized {
	case "ph":
		return "ph", true
	case "ec":
		return "ec", true
	case "oc", "ocpercent", "oc_percent", "organic_carbon":
		return "oc_percent", true
	case "n", "nitrogen":
		return "nitrogen", true
	case "p", "phosphorus", "phosphorous":
		return "phosphorus", true
	case "k", "potassium":
		return "potassium", true
	case "s", "sulphur", "sulfur":
		return "sulphur", true
	case "zn", "zinc":
		return "zinc", true
	case "fe", "iron":
		return "iron", true
	case "mn", "manganese":
		return "manganese", true
	case "cu", "copper":
		return "copper", true
	case "b", "boron":
		return "boron", true
	}
	// Headers like "nitrogen_kg_ha" or "zinc_ppm" still map by prefix.
	for _, col := range []struct{ prefix, name string }{
		{"nitrogen", "nitrogen"}, {"phosph", "phosphorus"}, {"potassium", "potassium"},
		{"sulph", "sulphur"}, {"sulf", "sulphur"}, {"zinc", "zinc"}, {"iron", "iron"},
		{"manganese", "manganese"}, {"copper", "copper"}, {"boron", "boron"},
		{"oc_", "oc_percent"}, {"ph_", "ph"}, {"ec_", "ec"},
	} {
		if strings.HasPrefix(normalized, col.prefix) {
			return col.name, true
		}
	}
	return "", false
}

// unsanitize is a best-effort reversal of the path-safe names: underscores
// back to spaces. Lossy for names carrying '-' or '_', so it is only the
// fallback when a directory has no meta file.
func unsanitize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

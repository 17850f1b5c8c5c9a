package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"agridata-labs/soil-scout/internal/models"
)

var logger = log.New(os.Stdout, "EXPORT: ", log.LstdFlags|log.Lshortfile)

// ErrFilesystem covers directory creation and file write failures.
var ErrFilesystem = errors.New("filesystem error")

// RawDirName and ProcessedDirName are the two subtrees under the output
// directory: raw per-block CSVs and the consolidated dataset.
const (
	RawDirName       = "raw"
	ProcessedDirName = "processed"

	ConsolidatedCSVName  = "consolidated_soil_nutrient_data.csv"
	ConsolidatedXLSXName = "consolidated_soil_nutrient_data.xlsx"

	// MetaFileName sits next to the raw CSVs in each district directory and
	// maps each file back to the true dashboard labels, since the path
	// segments are sanitized and that sanitization is lossy.
	MetaFileName = "meta.yaml"
)

// WriteRawTable saves one scraped table as
// <out>/raw/<year>/<state>/<district>/<block>_<kind>.csv, creating the
// directory chain as needed. Returns the written path.
func WriteRawTable(outputDir string, nt models.NutrientTable) (string, error) {
	loc := nt.Location
	dir := filepath.Join(outputDir, RawDirName,
		SanitizeName(loc.Year), SanitizeName(loc.State), SanitizeName(loc.District))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: cannot create %s: %v", ErrFilesystem, dir, err)
	}

	name := fmt.Sprintf("%s_%s.csv", SanitizeName(loc.Block), nt.Kind)
	path := filepath.Join(dir, name)
	if err := WriteCSV(path, nt.Table.Headers, nt.Table.Rows); err != nil {
		return "", err
	}
	if err := writeMeta(dir, name, loc); err != nil {
		return "", err
	}
	logger.Printf("Saved %s data for block '%s' to %s", nt.Kind, loc.Block, path)
	return path, nil
}

type metaEntry struct {
	Year     string `yaml:"year"`
	State    string `yaml:"state"`
	District string `yaml:"district"`
	Block    string `yaml:"block"`
}

// writeMeta records the dashboard labels for one raw CSV in the district's
// meta file, merging with whatever earlier writes left there.
func writeMeta(dir, fileName string, loc models.Location) error {
	path := filepath.Join(dir, MetaFileName)
	entries := map[string]metaEntry{}
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt meta file is rebuilt from scratch.
		_ = yaml.Unmarshal(data, &entries)
	}
	entries[fileName] = metaEntry{Year: loc.Year, State: loc.State, District: loc.District, Block: loc.Block}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: cannot write %s: %v", ErrFilesystem, path, err)
	}
	return nil
}

// ReadMeta loads the location labels recorded for a raw district directory.
// A missing meta file is not an error: the caller falls back to the path
// names then.
func ReadMeta(dir string) (map[string]models.Location, error) {
	path := filepath.Join(dir, MetaFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.Location{}, nil
		}
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrFilesystem, path, err)
	}

	entries := map[string]metaEntry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	out := make(map[string]models.Location, len(entries))
	for name, e := range entries {
		out[name] = models.Location{Year: e.Year, State: e.State, District: e.District, Block: e.Block}
	}
	return out, nil
}

// WriteCSV writes a header row followed by data rows.
func WriteCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: cannot create %s: %v", ErrFilesystem, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrFilesystem, path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrFilesystem, path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrFilesystem, path, err)
	}
	return nil
}

// ReadCSV loads a CSV file back into headers and rows. Used by the
// consolidation walk and as the round-trip check on written files.
func ReadCSV(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("%w: cannot open %s: %v", ErrFilesystem, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return models.Table{}, fmt.Errorf("csv %s is empty", path)
	}
	return models.Table{Headers: all[0], Rows: all[1:]}, nil
}

// RecordHeaders is the header row of the consolidated outputs.
func RecordHeaders() []string {
	headers := []string{"year", "state", "district", "block", "village"}
	return append(headers, models.NutrientColumns...)
}

// WriteConsolidatedCSV writes the merged dataset under <out>/processed/.
func WriteConsolidatedCSV(outputDir string, records []models.NutrientRecord) (string, error) {
	dir := filepath.Join(outputDir, ProcessedDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: cannot create %s: %v", ErrFilesystem, dir, err)
	}

	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, recordRow(&records[i]))
	}

	path := filepath.Join(dir, ConsolidatedCSVName)
	if err := WriteCSV(path, RecordHeaders(), rows); err != nil {
		return "", err
	}
	logger.Printf("Consolidated CSV saved to %s (%d records)", path, len(records))
	return path, nil
}

func recordRow(r *models.NutrientRecord) []string {
	row := []string{r.Year, r.State, r.District, r.Block, r.Village}
	for _, col := range models.NutrientColumns {
		if v := r.Value(col); v != nil {
			row = append(row, strconv.FormatFloat(*v, 'f', -1, 64))
		} else {
			row = append(row, "")
		}
	}
	return row
}

// SanitizeName keeps letters and digits and replaces everything else with an
// underscore, so location names are safe as path segments.
func SanitizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"agridata-labs/soil-scout/internal/models"
)

const sheetName = "SoilHealth"

// WriteConsolidatedXLSX writes the merged dataset as a spreadsheet under
// <out>/processed/. Numeric cells stay numeric so the file is usable for
// analysis as-is.
func WriteConsolidatedXLSX(outputDir string, records []models.NutrientRecord) (string, error) {
	dir := filepath.Join(outputDir, ProcessedDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: cannot create %s: %v", ErrFilesystem, dir, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	headers := RecordHeaders()
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return "", fmt.Errorf("failed to write header row: %w", err)
	}

	for i := range records {
		r := &records[i]
		row := []interface{}{r.Year, r.State, r.District, r.Block, r.Village}
		for _, col := range models.NutrientColumns {
			if v := r.Value(col); v != nil {
				row = append(row, *v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	path := filepath.Join(dir, ConsolidatedXLSXName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("%w: cannot save %s: %v", ErrFilesystem, path, err)
	}
	logger.Printf("Consolidated XLSX saved to %s (%d records)", path, len(records))
	return path, nil
}

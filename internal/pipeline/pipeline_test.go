package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridata-labs/soil-scout/internal/db"
	"agridata-labs/soil-scout/internal/export"
	"agridata-labs/soil-scout/internal/models"
	"agridata-labs/soil-scout/internal/scraper"
)

// fakeSource feeds canned tables, or fails like a dead network.
type fakeSource struct {
	tables []models.NutrientTable
	err    error
}

func (f fakeSource) FetchTables(ctx context.Context) ([]models.NutrientTable, error) {
	return f.tables, f.err
}

// recordingOpener captures the folder-open call, optionally failing.
type recordingOpener struct {
	opened []string
	err    error
}

func (r *recordingOpener) Open(path string) error {
	r.opened = append(r.opened, path)
	return r.err
}

func sampleTables() []models.NutrientTable {
	loc := models.Location{Year: "2023-24", State: "Punjab", District: "Moga", Block: "Nihal Singh Wala"}
	return []models.NutrientTable{
		{
			Location: loc,
			Kind:     models.KindMacro,
			Table: models.Table{
				Headers: []string{"Village", "Nitrogen", "Phosphorus", "Potassium"},
				Rows:    [][]string{{"Village A", "280", "12", "140"}},
			},
		},
	}
}

func TestScrapeWritesRawTreeAndStores(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "SoilHealthData")
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	defer database.Close()

	open := &recordingOpener{}
	result, err := Scrape(context.Background(), fakeSource{tables: sampleTables()}, outDir, database, open)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Tables)
	require.Len(t, result.RawFiles, 1)
	assert.Equal(t, int64(1), result.Records)

	// Raw CSV is on disk and re-parses.
	table, err := export.ReadCSV(result.RawFiles[0])
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Village A", table.Rows[0][0])

	// Folder was opened on the output dir.
	assert.Equal(t, []string{outDir}, open.opened)
}

func TestScrapeNetworkFailureWritesNothing(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "SoilHealthData")
	open := &recordingOpener{}

	source := fakeSource{err: fmt.Errorf("%w: simulated timeout", scraper.ErrNetwork)}
	_, err := Scrape(context.Background(), source, outDir, nil, open)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scraper.ErrNetwork))

	// No output file or directory was created, no folder opened.
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, open.opened)
}

func TestScrapeOpenFailureKeepsData(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "SoilHealthData")

	open := &recordingOpener{err: errors.New("no file browser on this host")}
	result, err := Scrape(context.Background(), fakeSource{tables: sampleTables()}, outDir, nil, open)
	require.NoError(t, err) // open failure is swallowed

	// Previously written output remains intact and readable.
	require.Len(t, result.RawFiles, 1)
	table, readErr := export.ReadCSV(result.RawFiles[0])
	require.NoError(t, readErr)
	assert.Equal(t, []string{"Village", "Nitrogen", "Phosphorus", "Potassium"}, table.Headers)
}

func TestScrapeNilOpener(t *testing.T) {
	outDir := t.TempDir()
	_, err := Scrape(context.Background(), fakeSource{tables: sampleTables()}, outDir, nil, nil)
	require.NoError(t, err)
}

func TestScrapeThenConsolidateRefreshesSameRows(t *testing.T) {
	outDir := t.TempDir()
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	defer database.Close()

	_, err = Scrape(context.Background(), fakeSource{tables: sampleTables()}, outDir, database, nil)
	require.NoError(t, err)
	_, err = Consolidate(outDir, database, nil)
	require.NoError(t, err)

	// Consolidating the raw tree upserts under the same key the scrape
	// used, not under the sanitized directory names.
	summary, err := db.GetSummary(database)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Records)
	assert.Equal(t, int64(1), summary.Years)
	assert.Equal(t, int64(1), summary.Blocks)

	var year, block string
	require.NoError(t, database.QueryRow(`SELECT year, block FROM soil_records`).Scan(&year, &block))
	assert.Equal(t, "2023-24", year)
	assert.Equal(t, "Nihal Singh Wala", block)
}

func TestConsolidatePipeline(t *testing.T) {
	outDir := t.TempDir()

	// Seed the raw tree through a scrape with no db and no opener.
	_, err := Scrape(context.Background(), fakeSource{tables: sampleTables()}, outDir, nil, nil)
	require.NoError(t, err)

	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	defer database.Close()

	open := &recordingOpener{}
	records, err := Consolidate(outDir, database, open)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Nitrogen)
	assert.Equal(t, 280.0, *records[0].Nitrogen)

	// Both consolidated outputs exist.
	_, err = os.Stat(filepath.Join(outDir, export.ProcessedDirName, export.ConsolidatedCSVName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, export.ProcessedDirName, export.ConsolidatedXLSXName))
	require.NoError(t, err)

	assert.Equal(t, []string{outDir}, open.opened)
}

package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridata-labs/soil-scout/internal/models"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func fval(v float64) *float64 { return &v }

func sampleRecords() []models.NutrientRecord {
	return []models.NutrientRecord{
		{
			Year: "2023-24", State: "Karnataka", District: "Mysuru", Block: "Hunsur",
			Village: "Village A", Nitrogen: fval(280), Phosphorus: fval(12), Potassium: fval(140),
		},
		{
			Year: "2023-24", State: "Karnataka", District: "Mysuru", Block: "Hunsur",
			Village: "Village B", Nitrogen: fval(310), Zinc: fval(0.62),
		},
		{
			Year: "2023-24", State: "Kerala", District: "Palakkad", Block: "Chittur",
			Village: "Village C", Nitrogen: fval(250),
		},
	}
}

func TestSaveRecordsAndSummary(t *testing.T) {
	database := testDB(t)

	count, err := SaveRecords(database, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	summary, err := GetSummary(database)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Records)
	assert.Equal(t, int64(1), summary.Years)
	assert.Equal(t, int64(2), summary.States)
	assert.Equal(t, int64(2), summary.Districts)
	assert.Equal(t, int64(2), summary.Blocks)
	assert.Equal(t, int64(3), summary.Villages)
}

func TestSaveRecordsUpserts(t *testing.T) {
	database := testDB(t)

	_, err := SaveRecords(database, sampleRecords())
	require.NoError(t, err)

	// Re-scraping the same villages updates in place instead of duplicating.
	updated := sampleRecords()
	updated[0].Nitrogen = fval(300)
	_, err = SaveRecords(database, updated)
	require.NoError(t, err)

	summary, err := GetSummary(database)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Records)

	var n float64
	err = database.QueryRow(`SELECT nitrogen FROM soil_records WHERE village = 'Village A';`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 300.0, n)
}

func TestGetNutrientAverages(t *testing.T) {
	database := testDB(t)
	_, err := SaveRecords(database, sampleRecords())
	require.NoError(t, err)

	averages, err := GetNutrientAverages(database)
	require.NoError(t, err)

	byCol := map[string]NutrientAverage{}
	for _, a := range averages {
		byCol[a.Column] = a
	}

	n, ok := byCol["nitrogen"]
	require.True(t, ok)
	assert.InDelta(t, 280.0, n.Average, 0.001) // (280+310+250)/3
	assert.Equal(t, int64(3), n.Count)

	zn, ok := byCol["zinc"]
	require.True(t, ok)
	assert.Equal(t, int64(1), zn.Count)

	// Columns with no data at all are omitted.
	_, ok = byCol["boron"]
	assert.False(t, ok)
}

func TestGetAllRecords(t *testing.T) {
	database := testDB(t)
	_, err := SaveRecords(database, sampleRecords())
	require.NoError(t, err)

	records, err := GetAllRecords(database)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byVillage := map[string]models.NutrientRecord{}
	for _, r := range records {
		byVillage[r.Village] = r
	}
	a := byVillage["Village A"]
	assert.Equal(t, "Karnataka", a.State)
	require.NotNil(t, a.Nitrogen)
	assert.Equal(t, 280.0, *a.Nitrogen)
	assert.Nil(t, a.Zinc)

	b := byVillage["Village B"]
	require.NotNil(t, b.Zinc)
	assert.Equal(t, 0.62, *b.Zinc)
}

func TestGetStateAverages(t *testing.T) {
	database := testDB(t)
	_, err := SaveRecords(database, sampleRecords())
	require.NoError(t, err)

	byState, err := GetStateAverages(database, "nitrogen")
	require.NoError(t, err)
	require.Len(t, byState, 2)

	// Ordered by average descending: Karnataka (295) before Kerala (250).
	assert.Equal(t, "Karnataka", byState[0].State)
	assert.InDelta(t, 295.0, byState[0].Average, 0.001)
	assert.Equal(t, "Kerala", byState[1].State)

	_, err = GetStateAverages(database, "village; DROP TABLE soil_records")
	require.Error(t, err)
}

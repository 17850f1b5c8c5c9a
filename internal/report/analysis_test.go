package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agridata-labs/soil-scout/internal/models"
)

func analysisRecords() []models.NutrientRecord {
	// Four districts with one village each; nitrogen 100..400 puts only
	// Alpha below the 175 bottom-quartile threshold.
	return []models.NutrientRecord{
		{
			Year: "2023-24", State: "Punjab", District: "Alpha", Block: "B1",
			Village: "Village A", Nitrogen: fval(100), Phosphorus: fval(10),
		},
		{
			Year: "2023-24", State: "Punjab", District: "Beta", Block: "B2",
			Village: "Village B", Nitrogen: fval(200), Phosphorus: fval(20),
		},
		{
			Year: "2023-24", State: "Haryana", District: "Gamma", Block: "B3",
			Village: "Village C", Nitrogen: fval(300), Phosphorus: fval(30),
		},
		{
			Year: "2023-24", State: "Haryana", District: "Delta", Block: "B4",
			Village: "Village D", Nitrogen: fval(400), Phosphorus: fval(40),
		},
	}
}

func TestAnalyzeDistribution(t *testing.T) {
	a := Analyze(analysisRecords())

	byCol := map[string]ColumnStats{}
	for _, s := range a.Distribution {
		byCol[s.Column] = s
	}
	n, ok := byCol["nitrogen"]
	require.True(t, ok)
	assert.Equal(t, 4, n.Count)
	assert.InDelta(t, 250.0, n.Mean, 0.001)
	assert.Equal(t, 100.0, n.Min)
	assert.Equal(t, 400.0, n.Max)
	assert.InDelta(t, 175.0, n.Q1, 0.001)
	assert.InDelta(t, 250.0, n.Median, 0.001)
	assert.InDelta(t, 325.0, n.Q3, 0.001)

	// Columns with no data at all are omitted.
	_, ok = byCol["boron"]
	assert.False(t, ok)
}

func TestAnalyzeCorrelations(t *testing.T) {
	a := Analyze(analysisRecords())

	var np *Correlation
	for i := range a.Correlations {
		c := &a.Correlations[i]
		if c.A == "nitrogen" && c.B == "phosphorus" {
			np = c
		}
	}
	require.NotNil(t, np)
	assert.Equal(t, 4, np.N)
	// Phosphorus tracks nitrogen exactly in the sample data.
	assert.InDelta(t, 1.0, np.R, 0.001)
}

func TestAnalyzeLowNitrogenDistricts(t *testing.T) {
	a := Analyze(analysisRecords())

	assert.InDelta(t, 175.0, a.NitrogenThreshold, 0.001)
	require.Len(t, a.LowNitrogen, 1)
	assert.Equal(t, "Punjab", a.LowNitrogen[0].State)
	assert.Equal(t, "Alpha", a.LowNitrogen[0].District)
	assert.InDelta(t, 100.0, a.LowNitrogen[0].AvgNitrogen, 0.001)
	assert.Equal(t, 1, a.LowNitrogen[0].Villages)
}

func TestAnalyzeEmptyRecords(t *testing.T) {
	a := Analyze(nil)
	assert.Empty(t, a.Distribution)
	assert.Empty(t, a.Correlations)
	assert.Empty(t, a.LowNitrogen)
}

func TestRenderAnalysis(t *testing.T) {
	a := Analyze(analysisRecords())

	var buf bytes.Buffer
	RenderAnalysis(&buf, a)
	out := buf.String()

	assert.Contains(t, out, "Nutrient distributions:")
	assert.Contains(t, out, "nitrogen")
	assert.Contains(t, out, "Low nitrogen districts")
	assert.Contains(t, out, "Alpha")
	assert.NotContains(t, out, "Delta")
}

func TestSaveAnalysisXLSX(t *testing.T) {
	outDir := t.TempDir()
	a := Analyze(analysisRecords())

	path, err := SaveAnalysisXLSX(outDir, a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, AnalysisDirName, AnalysisXLSXName), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Distribution", "Correlation", "LowNitrogen"}, f.GetSheetList())

	rows, err := f.GetRows("Distribution")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + nitrogen + phosphorus
	assert.Equal(t, "column", rows[0][0])
	assert.Equal(t, "nitrogen", rows[1][0])

	low, err := f.GetRows("LowNitrogen")
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Alpha", low[1][1])
}

package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"

	"agridata-labs/soil-scout/internal/models"
)

// Analysis outputs land under <out>/analysis_results/.
const (
	AnalysisDirName  = "analysis_results"
	AnalysisXLSXName = "soil_analysis.xlsx"
)

// ColumnStats describes the distribution of one measurement.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Correlation is the Pearson coefficient between two measurements, computed
// over the rows that carry both.
type Correlation struct {
	A string
	B string
	R float64
	N int
}

// DeficientRegion is a district whose average nitrogen sits in the bottom
// quartile of district averages.
type DeficientRegion struct {
	State       string
	District    string
	AvgNitrogen float64
	Villages    int
}

// Analysis bundles the derived statistics shown after the report and saved
// into the analysis workbook.
type Analysis struct {
	Distribution      []ColumnStats
	Correlations      []Correlation
	LowNitrogen       []DeficientRegion
	NitrogenThreshold float64
}

// Analyze computes per-nutrient distributions, pairwise correlations and the
// low-nitrogen district listing from the full record set.
func Analyze(records []models.NutrientRecord) *Analysis {
	a := &Analysis{}

	byColumn := map[string][]float64{}
	for i := range records {
		r := &records[i]
		for _, col := range models.NutrientColumns {
			if v := r.Value(col); v != nil {
				byColumn[col] = append(byColumn[col], *v)
			}
		}
	}

	for _, col := range models.NutrientColumns {
		vals := byColumn[col]
		if len(vals) == 0 {
			continue
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		a.Distribution = append(a.Distribution, ColumnStats{
			Column: col,
			Count:  len(sorted),
			Mean:   sum / float64(len(sorted)),
			Min:    sorted[0],
			Q1:     quantile(sorted, 0.25),
			Median: quantile(sorted, 0.5),
			Q3:     quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
		})
	}

	for i := 0; i < len(models.NutrientColumns); i++ {
		for j := i + 1; j < len(models.NutrientColumns); j++ {
			colA, colB := models.NutrientColumns[i], models.NutrientColumns[j]
			var xs, ys []float64
			for k := range records {
				va, vb := records[k].Value(colA), records[k].Value(colB)
				if va != nil && vb != nil {
					xs = append(xs, *va)
					ys = append(ys, *vb)
				}
			}
			if len(xs) < 2 {
				continue
			}
			if r, ok := pearson(xs, ys); ok {
				a.Correlations = append(a.Correlations, Correlation{A: colA, B: colB, R: r, N: len(xs)})
			}
		}
	}

	a.LowNitrogen, a.NitrogenThreshold = lowNitrogenDistricts(records)
	return a
}

// lowNitrogenDistricts averages nitrogen per district and lists the districts
// at or below the 25th percentile of those averages, worst first.
func lowNitrogenDistricts(records []models.NutrientRecord) ([]DeficientRegion, float64) {
	type acc struct {
		state    string
		district string
		sum      float64
		n        int
	}
	byDistrict := map[string]*acc{}
	var keys []string

	for i := range records {
		r := &records[i]
		if r.Nitrogen == nil {
			continue
		}
		key := r.State + "\x00" + r.District
		d, ok := byDistrict[key]
		if !ok {
			d = &acc{state: r.State, district: r.District}
			byDistrict[key] = d
			keys = append(keys, key)
		}
		d.sum += *r.Nitrogen
		d.n++
	}
	if len(keys) == 0 {
		return nil, 0
	}

	averages := make([]float64, 0, len(keys))
	for _, key := range keys {
		d := byDistrict[key]
		averages = append(averages, d.sum/float64(d.n))
	}
	sort.Float64s(averages)
	threshold := quantile(averages, 0.25)

	var out []DeficientRegion
	for _, key := range keys {
		d := byDistrict[key]
		avg := d.sum / float64(d.n)
		if avg <= threshold {
			out = append(out, DeficientRegion{State: d.state, District: d.district, AvgNitrogen: avg, Villages: d.n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvgNitrogen < out[j].AvgNitrogen })
	return out, threshold
}

// quantile interpolates linearly between the two nearest ranks of a sorted
// slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// pearson returns the correlation coefficient, or false when either series
// has no variance.
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

// RenderAnalysis prints the distribution table and the low-nitrogen listing
// after the main report.
func RenderAnalysis(w io.Writer, a *Analysis) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if len(a.Distribution) > 0 {
		green.Fprintln(w, "\nNutrient distributions:")
		fmt.Fprintf(w, "  %-12s %6s %10s %10s %10s %10s %10s %10s\n",
			"column", "count", "mean", "min", "q1", "median", "q3", "max")
		for _, s := range a.Distribution {
			fmt.Fprintf(w, "  %-12s %6d %10.2f %10.2f %10.2f %10.2f %10.2f %10.2f\n",
				s.Column, s.Count, s.Mean, s.Min, s.Q1, s.Median, s.Q3, s.Max)
		}
	}

	if len(a.LowNitrogen) > 0 {
		yellow.Fprintf(w, "\nLow nitrogen districts (bottom quartile, avg ≤ %.2f):\n", a.NitrogenThreshold)
		for _, r := range a.LowNitrogen {
			fmt.Fprintf(w, "  %-20s %-20s %10.2f  (%d villages)\n", r.State, r.District, r.AvgNitrogen, r.Villages)
		}
	}
}

// SaveAnalysisXLSX writes the full analysis, correlations included, as a
// workbook under <out>/analysis_results/. Returns the written path.
func SaveAnalysisXLSX(outputDir string, a *Analysis) (string, error) {
	dir := filepath.Join(outputDir, AnalysisDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Distribution")
	f.SetSheetRow("Distribution", "A1",
		&[]interface{}{"column", "count", "mean", "min", "q1", "median", "q3", "max"})
	for i, s := range a.Distribution {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		f.SetSheetRow("Distribution", cell,
			&[]interface{}{s.Column, s.Count, s.Mean, s.Min, s.Q1, s.Median, s.Q3, s.Max})
	}

	if _, err := f.NewSheet("Correlation"); err != nil {
		return "", err
	}
	f.SetSheetRow("Correlation", "A1", &[]interface{}{"a", "b", "r", "samples"})
	for i, c := range a.Correlations {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		f.SetSheetRow("Correlation", cell, &[]interface{}{c.A, c.B, c.R, c.N})
	}

	if _, err := f.NewSheet("LowNitrogen"); err != nil {
		return "", err
	}
	f.SetSheetRow("LowNitrogen", "A1", &[]interface{}{"state", "district", "avg_nitrogen", "villages"})
	for i, r := range a.LowNitrogen {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		f.SetSheetRow("LowNitrogen", cell, &[]interface{}{r.State, r.District, r.AvgNitrogen, r.Villages})
	}

	path := filepath.Join(dir, AnalysisXLSXName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save analysis workbook: %w", err)
	}
	return path, nil
}

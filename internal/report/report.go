// Package report formats dataset statistics for the terminal and builds the
// plain-text summary handed to the optional AI insights step.
package report

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"agridata-labs/soil-scout/internal/db"
)

// Stats bundles everything the report shows.
type Stats struct {
	Summary       db.Summary
	Averages      []db.NutrientAverage
	StateAverages map[string][]db.StateAverage
}

// Collect gathers the summary, the per-nutrient means and the per-state
// breakdown for the headline macro nutrients.
func Collect(database *sql.DB) (*Stats, error) {
	summary, err := db.GetSummary(database)
	if err != nil {
		return nil, err
	}
	averages, err := db.GetNutrientAverages(database)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Summary:       summary,
		Averages:      averages,
		StateAverages: map[string][]db.StateAverage{},
	}
	for _, col := range []string{"nitrogen", "phosphorus", "potassium"} {
		byState, err := db.GetStateAverages(database, col)
		if err != nil {
			return nil, err
		}
		if len(byState) > 0 {
			stats.StateAverages[col] = byState
		}
	}
	return stats, nil
}

// Render prints the report.
func Render(w io.Writer, stats *Stats) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	cyan.Fprintln(w, "\n🌱 Soil Health Data Report")
	cyan.Fprintln(w, "===========================")

	s := stats.Summary
	fmt.Fprintf(w, "\nRecords: %d across %d year(s), %d state(s), %d district(s), %d block(s), %d village(s)\n",
		s.Records, s.Years, s.States, s.Districts, s.Blocks, s.Villages)

	if len(stats.Averages) > 0 {
		green.Fprintln(w, "\nAverage nutrient levels:")
		for _, a := range stats.Averages {
			fmt.Fprintf(w, "  • %-12s %10.2f  (%d samples)\n", a.Column, a.Average, a.Count)
		}
	}

	for _, col := range []string{"nitrogen", "phosphorus", "potassium"} {
		byState, ok := stats.StateAverages[col]
		if !ok {
			continue
		}
		green.Fprintf(w, "\nAverage %s by state:\n", col)
		for i, sa := range byState {
			if i >= 10 {
				fmt.Fprintf(w, "  ... and %d more\n", len(byState)-i)
				break
			}
			fmt.Fprintf(w, "  %-30s %10.2f  (%d samples)\n", sa.State, sa.Average, sa.Count)
		}
	}
}

// TextSummary renders the stats as plain text for the AI insights prompt.
func TextSummary(stats *Stats) string {
	var b strings.Builder
	s := stats.Summary
	fmt.Fprintf(&b, "Dataset: %d records, %d years, %d states, %d districts, %d blocks, %d villages.\n",
		s.Records, s.Years, s.States, s.Districts, s.Blocks, s.Villages)
	for _, a := range stats.Averages {
		fmt.Fprintf(&b, "Average %s: %.2f over %d samples.\n", a.Column, a.Average, a.Count)
	}
	for col, byState := range stats.StateAverages {
		for _, sa := range byState {
			fmt.Fprintf(&b, "State %s average %s: %.2f (%d samples).\n", sa.State, col, sa.Average, sa.Count)
		}
	}
	return b.String()
}

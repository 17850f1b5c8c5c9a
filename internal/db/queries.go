package db

import (
	"database/sql"
	"fmt"

	"agridata-labs/soil-scout/internal/models"
)

// Summary holds the dataset-level counts shown by the report command.
type Summary struct {
	Records   int64
	Years     int64
	States    int64
	Districts int64
	Blocks    int64
	Villages  int64
}

// NutrientAverage is the mean of one measurement over every row that has it.
type NutrientAverage struct {
	Column  string
	Average float64
	Count   int64
}

// StateAverage is the mean of one measurement grouped by state.
type StateAverage struct {
	State   string
	Average float64
	Count   int64
}

// GetSummary counts rows and distinct location levels.
func GetSummary(db *sql.DB) (Summary, error) {
	var s Summary
	row := db.QueryRow(`
	SELECT COUNT(*),
	       COUNT(DISTINCT year),
	       COUNT(DISTINCT state),
	       COUNT(DISTINCT district),
	       COUNT(DISTINCT block),
	       COUNT(DISTINCT village)
	FROM soil_records;`)
	if err := row.Scan(&s.Records, &s.Years, &s.States, &s.Districts, &s.Blocks, &s.Villages); err != nil {
		return Summary{}, fmt.Errorf("failed to query summary: %w", err)
	}
	return s, nil
}

// GetNutrientAverages returns the mean of every nutrient column, skipping
// columns with no data at all.
func GetNutrientAverages(db *sql.DB) ([]NutrientAverage, error) {
	var out []NutrientAverage
	for _, col := range models.NutrientColumns {
		// col comes from the fixed NutrientColumns list, never from input.
		q := fmt.Sprintf(`SELECT AVG(%s), COUNT(%s) FROM soil_records WHERE %s IS NOT NULL;`, col, col, col)
		var avg sql.NullFloat64
		var count int64
		if err := db.QueryRow(q).Scan(&avg, &count); err != nil {
			return nil, fmt.Errorf("failed to query average for %s: %w", col, err)
		}
		if avg.Valid {
			out = append(out, NutrientAverage{Column: col, Average: avg.Float64, Count: count})
		}
	}
	return out, nil
}

// GetAllRecords loads every stored record in location order, for the
// analysis stage.
func GetAllRecords(db *sql.DB) ([]models.NutrientRecord, error) {
	rows, err := db.Query(`
	SELECT year, state, district, block, village,
	       ph, ec, oc_percent, nitrogen, phosphorus, potassium, sulphur,
	       zinc, iron, manganese, copper, boron
	FROM soil_records
	ORDER BY year, state, district, block, village;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []models.NutrientRecord
	for rows.Next() {
		var r models.NutrientRecord
		vals := make([]sql.NullFloat64, len(models.NutrientColumns))
		dest := []interface{}{&r.Year, &r.State, &r.District, &r.Block, &r.Village}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, col := range models.NutrientColumns {
			if vals[i].Valid {
				r.SetValue(col, vals[i].Float64)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStateAverages returns the per-state mean of one nutrient column.
func GetStateAverages(db *sql.DB, column string) ([]StateAverage, error) {
	valid := false
	for _, col := range models.NutrientColumns {
		if col == column {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown nutrient column '%s'", column)
	}

	q := fmt.Sprintf(`
	SELECT state, AVG(%s), COUNT(%s)
	FROM soil_records
	WHERE %s IS NOT NULL
	GROUP BY state
	ORDER BY AVG(%s) DESC;`, column, column, column, column)

	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("failed to query state averages for %s: %w", column, err)
	}
	defer rows.Close()

	var out []StateAverage
	for rows.Next() {
		var sa StateAverage
		if err := rows.Scan(&sa.State, &sa.Average, &sa.Count); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

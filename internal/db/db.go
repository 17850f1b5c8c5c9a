package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"agridata-labs/soil-scout/internal/models"
)

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	recordsTable := `
	CREATE TABLE IF NOT EXISTS soil_records (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  year TEXT NOT NULL,
	  state TEXT NOT NULL,
	  district TEXT NOT NULL,
	  block TEXT NOT NULL,
	  village TEXT NOT NULL,
	  ph REAL,
	  ec REAL,
	  oc_percent REAL,
	  nitrogen REAL,
	  phosphorus REAL,
	  potassium REAL,
	  sulphur REAL,
	  zinc REAL,
	  iron REAL,
	  manganese REAL,
	  copper REAL,
	  boron REAL,
	  first_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  last_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  UNIQUE(year, state, district, block, village)
	);
	CREATE INDEX IF NOT EXISTS idx_soil_records_state ON soil_records(state);
	CREATE INDEX IF NOT EXISTS idx_soil_records_year ON soil_records(year);
	`
	_, err := db.Exec(recordsTable)
	return err
}

// SaveRecords performs a batch UPSERT of consolidated records, keyed on the
// full location. Re-scraping a block refreshes its measurements in place.
func SaveRecords(db *sql.DB, records []models.NutrientRecord) (int64, error) {
	upsertSQL := `
	INSERT INTO soil_records (
	  year, state, district, block, village,
	  ph, ec, oc_percent, nitrogen, phosphorus, potassium, sulphur,
	  zinc, iron, manganese, copper, boron,
	  last_scraped_at
	) VALUES (
	  ?, ?, ?, ?, ?,
	  ?, ?, ?, ?, ?, ?, ?,
	  ?, ?, ?, ?, ?,
	  CURRENT_TIMESTAMP
	) ON CONFLICT(year, state, district, block, village) DO UPDATE SET
	  ph = excluded.ph,
	  ec = excluded.ec,
	  oc_percent = excluded.oc_percent,
	  nitrogen = excluded.nitrogen,
	  phosphorus = excluded.phosphorus,
	  potassium = excluded.potassium,
	  sulphur = excluded.sulphur,
	  zinc = excluded.zinc,
	  iron = excluded.iron,
	  manganese = excluded.manganese,
	  copper = excluded.copper,
	  boron = excluded.boron,
	  last_scraped_at = CURRENT_TIMESTAMP;
	`
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var totalAffected int64
	for i := range records {
		r := &records[i]
		res, err := stmt.ExecContext(ctx,
			r.Year, r.State, r.District, r.Block, r.Village,
			nullable(r.PH), nullable(r.EC), nullable(r.OrganicCarbon),
			nullable(r.Nitrogen), nullable(r.Phosphorus), nullable(r.Potassium), nullable(r.Sulphur),
			nullable(r.Zinc), nullable(r.Iron), nullable(r.Manganese), nullable(r.Copper), nullable(r.Boron),
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to exec upsert for village '%s': %w", r.Village, err)
		}
		affected, _ := res.RowsAffected()
		totalAffected += affected
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return totalAffected, nil
}

func nullable(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

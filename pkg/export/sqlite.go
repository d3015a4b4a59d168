package export

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/pandemap/pkg/mapview"
	"github.com/vanderheijden86/pandemap/pkg/model"
)

// SchemaVersion is stored in the meta table.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE countries (
		country TEXT NOT NULL,
		iso_code TEXT,
		date TEXT NOT NULL,
		cases INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		cases_per_million REAL NOT NULL,
		deaths_per_million REAL NOT NULL,
		bucket TEXT NOT NULL,
		PRIMARY KEY (country, date)
	)`,
	`CREATE TABLE global_stats (
		date TEXT PRIMARY KEY,
		total_cases INTEGER NOT NULL,
		total_deaths INTEGER NOT NULL,
		total_countries INTEGER NOT NULL
	)`,
	`CREATE TABLE meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX idx_countries_bucket ON countries(bucket)`,
}

// ExportSQLite writes ds, and stats when present, to a fresh SQLite
// database at path. Each country row carries its severity bucket.
func ExportSQLite(path string, ds *model.MapDataset, stats *model.GlobalStats, source string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ins, err := tx.Prepare(`INSERT OR REPLACE INTO countries
		(country, iso_code, date, cases, deaths, cases_per_million, deaths_per_million, bucket)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer ins.Close()
	for _, c := range ds.Countries {
		bucket := mapview.BucketFor(c, true)
		if _, err := ins.Exec(c.Country, c.ISOCode, ds.Date, c.Cases, c.Deaths,
			c.CasesPerMillion, c.DeathsPerMillion, bucket.String()); err != nil {
			return fmt.Errorf("insert %s: %w", c.Country, err)
		}
	}

	if stats != nil {
		date := stats.Date
		if date == "" {
			date = ds.Date
		}
		if _, err := tx.Exec(`INSERT INTO global_stats (date, total_cases, total_deaths, total_countries)
			VALUES (?, ?, ?, ?)`, date, stats.TotalCases, stats.TotalDeaths, stats.TotalCountries); err != nil {
			return fmt.Errorf("insert global stats: %w", err)
		}
	}

	meta := map[string]string{
		"schema_version": fmt.Sprint(SchemaVersion),
		"exported_at":    time.Now().UTC().Format(time.RFC3339),
		"date":           ds.Date,
		"source":         source,
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

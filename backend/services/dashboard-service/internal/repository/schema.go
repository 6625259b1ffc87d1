package repository

import (
	"context"
	"database/sql"
	"fmt"

	libdb "tempdash/backend/libs/db"
)

var postgresTable = `
	CREATE TABLE IF NOT EXISTS readings (
		record_id     TEXT PRIMARY KEY,
		device_id     TEXT NOT NULL,
		observed_at   TIMESTAMPTZ NOT NULL,
		temperature   INTEGER NOT NULL,
		location_flag VARCHAR(8) NOT NULL DEFAULT ''
	)`

var postgresViews = []string{
	`CREATE OR REPLACE VIEW avg_temp_by_device AS
		SELECT device_id,
		       AVG(temperature)::DOUBLE PRECISION AS avg_temperature,
		       COUNT(*) AS readings
		FROM readings
		GROUP BY device_id`,
	`CREATE OR REPLACE VIEW readings_by_hour AS
		SELECT EXTRACT(HOUR FROM observed_at AT TIME ZONE 'UTC')::INTEGER AS hour,
		       COUNT(*) AS readings
		FROM readings
		GROUP BY 1`,
	`CREATE OR REPLACE VIEW temp_min_max_by_day AS
		SELECT TO_CHAR(observed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       MIN(temperature) AS min_temperature,
		       MAX(temperature) AS max_temperature
		FROM readings
		GROUP BY 1`,
}

var sqliteTable = `
	CREATE TABLE IF NOT EXISTS readings (
		record_id     TEXT PRIMARY KEY,
		device_id     TEXT NOT NULL,
		observed_at   TEXT NOT NULL,
		temperature   INTEGER NOT NULL,
		location_flag TEXT NOT NULL DEFAULT ''
	)`

var sqliteViews = []string{
	`CREATE VIEW IF NOT EXISTS avg_temp_by_device AS
		SELECT device_id,
		       AVG(temperature) AS avg_temperature,
		       COUNT(*) AS readings
		FROM readings
		GROUP BY device_id`,
	`CREATE VIEW IF NOT EXISTS readings_by_hour AS
		SELECT CAST(strftime('%H', observed_at) AS INTEGER) AS hour,
		       COUNT(*) AS readings
		FROM readings
		GROUP BY 1`,
	`CREATE VIEW IF NOT EXISTS temp_min_max_by_day AS
		SELECT date(observed_at) AS day,
		       MIN(temperature) AS min_temperature,
		       MAX(temperature) AS max_temperature
		FROM readings
		GROUP BY 1`,
}

// EnsureSchema creates the readings table and, when withViews is set, the dashboard views.
// Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string, withViews bool) error {
	var table string
	var views []string
	switch libdb.NormalizeDriver(driver) {
	case libdb.DriverPostgres:
		table, views = postgresTable, postgresViews
	case libdb.DriverSQLite:
		table, views = sqliteTable, sqliteViews
	default:
		return fmt.Errorf("repository: unsupported driver %q", driver)
	}

	stmts := []string{table}
	if withViews {
		stmts = append(stmts, views...)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: ensure schema: %w", err)
		}
	}
	return nil
}

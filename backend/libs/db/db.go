package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open dispatches to the matching constructor for driver.
func Open(driver, dsn string) (*sql.DB, error) {
	switch NormalizeDriver(driver) {
	case DriverPostgres:
		return NewPostgresDB(dsn)
	case DriverSQLite:
		return NewSQLiteDB(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
}

// NormalizeDriver folds common aliases onto the supported driver names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql", "pgx", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

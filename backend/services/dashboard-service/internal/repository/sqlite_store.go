package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// sqliteTimeLayout is understood by SQLite's date and strftime functions.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore persists readings in an embedded SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ExistingIDs scans the full record_id column.
func (s *SQLiteStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	return existingIDs(ctx, s.db)
}

// Append inserts readings inside one transaction.
func (s *SQLiteStore) Append(ctx context.Context, readings []models.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (record_id, device_id, observed_at, temperature, location_flag)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range readings {
		_, err := stmt.ExecContext(ctx, r.RecordID, r.DeviceID, r.ObservedAt.UTC().Format(sqliteTimeLayout), r.Temperature, r.LocationFlag)
		if err != nil {
			if isSQLiteConstraint(err) {
				return 0, fmt.Errorf("%w: %s", ErrConstraintViolation, r.RecordID)
			}
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(readings)), nil
}

// QueryView returns SELECT * of a dashboard view.
func (s *SQLiteStore) QueryView(ctx context.Context, name string) (models.ViewResult, error) {
	return queryView(ctx, s.db, name)
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

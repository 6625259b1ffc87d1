package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	libdb "tempdash/backend/libs/db"
	"tempdash/backend/services/dashboard-service/internal/models"
)

// ReadingsTable is the destination table of every sync pass.
const ReadingsTable = "readings"

var (
	// ErrConstraintViolation is returned by Append when a record_id already exists.
	ErrConstraintViolation = errors.New("repository: record_id already stored")
	// ErrUnknownView is returned by QueryView for names outside the dashboard views.
	ErrUnknownView = errors.New("repository: unknown view")
)

// ReadingStore is the persistence boundary used by sync passes and the dashboard.
type ReadingStore interface {
	// ExistingIDs returns every stored record_id.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	// Append inserts all readings or none and returns the inserted count.
	Append(ctx context.Context, readings []models.Reading) (int64, error)
	// QueryView runs SELECT * against a dashboard view.
	QueryView(ctx context.Context, name string) (models.ViewResult, error)
}

// NewStore returns the ReadingStore matching driver.
func NewStore(driver string, db *sql.DB) (ReadingStore, error) {
	switch libdb.NormalizeDriver(driver) {
	case libdb.DriverPostgres:
		return NewPostgresStore(db), nil
	case libdb.DriverSQLite:
		return NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("repository: unsupported driver %q", driver)
	}
}

func existingIDs(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT record_id FROM `+ReadingsTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

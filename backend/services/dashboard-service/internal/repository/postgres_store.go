package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"tempdash/backend/services/dashboard-service/internal/models"
)

const pgUniqueViolation = "23505"

var readingColumns = []string{"record_id", "device_id", "observed_at", "temperature", "location_flag"}

// PostgresStore persists readings in Postgres through the pgx stdlib pool.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ExistingIDs scans the full record_id column.
func (s *PostgresStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	return existingIDs(ctx, s.db)
}

// Append streams readings with COPY, which either loads every row or none.
func (s *PostgresStore) Append(ctx context.Context, readings []models.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("open postgres connection: %w", err)
	}
	defer conn.Close()

	rows := make([][]any, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, []any{r.RecordID, r.DeviceID, r.ObservedAt.UTC(), r.Temperature, r.LocationFlag})
	}

	var inserted int64
	err = conn.Raw(func(driverConn any) error {
		direct, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected postgres driver %T", driverConn)
		}
		n, err := direct.Conn().CopyFrom(ctx, pgx.Identifier{ReadingsTable}, readingColumns, pgx.CopyFromRows(rows))
		inserted = n
		return err
	})
	if err != nil {
		return 0, copyError(err)
	}
	return inserted, nil
}

// copyError maps a unique violation onto ErrConstraintViolation and wraps anything else.
func copyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.Detail)
	}
	return fmt.Errorf("copy readings: %w", err)
}

// QueryView returns SELECT * of a dashboard view.
func (s *PostgresStore) QueryView(ctx context.Context, name string) (models.ViewResult, error) {
	return queryView(ctx, s.db, name)
}

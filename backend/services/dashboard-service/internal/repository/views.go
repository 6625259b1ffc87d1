package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tempdash/backend/services/dashboard-service/internal/models"
)

func knownView(name string) bool {
	for _, v := range models.DashboardViews {
		if v == name {
			return true
		}
	}
	return false
}

// queryView is shared by both stores; name is checked against the view list before it
// reaches the SQL text.
func queryView(ctx context.Context, db *sql.DB, name string) (models.ViewResult, error) {
	if !knownView(name) {
		return models.ViewResult{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM `+name)
	if err != nil {
		return models.ViewResult{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return models.ViewResult{}, err
	}

	result := models.ViewResult{Name: name, Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return models.ViewResult{}, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.ViewResult{}, err
	}
	return result, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// Canonical column names.
const (
	ColumnRecordID     = "record_id"
	ColumnDeviceID     = "device_id"
	ColumnObservedAt   = "observed_at"
	ColumnTemperature  = "temperature"
	ColumnLocationFlag = "location_flag"
)

var requiredColumns = []string{ColumnRecordID, ColumnDeviceID, ColumnObservedAt, ColumnTemperature}

// DefaultRenames maps the column names of the sensor export onto canonical names.
func DefaultRenames() map[string]string {
	return map[string]string{
		"id":         ColumnRecordID,
		"room_id/id": ColumnDeviceID,
		"room_id":    ColumnDeviceID,
		"noted_date": ColumnObservedAt,
		"temp":       ColumnTemperature,
		"out/in":     ColumnLocationFlag,
		"out_in":     ColumnLocationFlag,
	}
}

// DefaultLayouts are tried before falling back to dateparse.
func DefaultLayouts() []string {
	return []string{
		"02-01-2006 15:04",
		"02-01-2006 15:04:05",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
}

// SkipReason explains why a row was dropped.
type SkipReason string

const (
	SkipBadTimestamp   SkipReason = "bad_timestamp"
	SkipBadTemperature SkipReason = "bad_temperature"
	SkipMissingID      SkipReason = "missing_record_id"
	SkipBadLocation    SkipReason = "bad_location"
)

// Batch is the normalizer output. Skipped counts dropped rows per reason.
type Batch struct {
	Readings []models.Reading
	Skipped  map[SkipReason]int
}

// SkippedTotal sums every skip reason.
func (b Batch) SkippedTotal() int {
	total := 0
	for _, n := range b.Skipped {
		total += n
	}
	return total
}

// Normalizer renames columns and parses rows into readings.
type Normalizer struct {
	renames  map[string]string
	layouts  []string
	location *time.Location
}

// NewNormalizer builds a Normalizer. Nil renames or layouts select the defaults, a nil
// location means UTC.
func NewNormalizer(renames map[string]string, layouts []string, location *time.Location) *Normalizer {
	if renames == nil {
		renames = DefaultRenames()
	}
	if len(layouts) == 0 {
		layouts = DefaultLayouts()
	}
	if location == nil {
		location = time.UTC
	}

	folded := make(map[string]string, len(renames)+len(requiredColumns)+1)
	for _, canonical := range append(append([]string{}, requiredColumns...), ColumnLocationFlag) {
		folded[canonical] = canonical
	}
	for from, to := range renames {
		folded[foldColumn(from)] = to
	}
	return &Normalizer{renames: folded, layouts: layouts, location: location}
}

// Normalize maps a raw table onto readings, dropping rows that fail to parse.
func (n *Normalizer) Normalize(table RawTable) (Batch, error) {
	index := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		canonical, ok := n.renames[foldColumn(name)]
		if !ok {
			continue
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return Batch{}, fmt.Errorf("%w: missing column %q", ErrSourceUnavailable, col)
		}
	}

	batch := Batch{
		Readings: make([]models.Reading, 0, len(table.Rows)),
		Skipped:  make(map[SkipReason]int),
	}
	for _, row := range table.Rows {
		reading, reason, ok := n.parseRow(row, index)
		if !ok {
			batch.Skipped[reason]++
			continue
		}
		batch.Readings = append(batch.Readings, reading)
	}
	return batch, nil
}

func (n *Normalizer) parseRow(row []string, index map[string]int) (models.Reading, SkipReason, bool) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	recordID := field(ColumnRecordID)
	if recordID == "" {
		return models.Reading{}, SkipMissingID, false
	}
	observedAt, err := n.ParseTimestamp(field(ColumnObservedAt))
	if err != nil {
		return models.Reading{}, SkipBadTimestamp, false
	}
	temperature, err := parseTemperature(field(ColumnTemperature))
	if err != nil {
		return models.Reading{}, SkipBadTemperature, false
	}
	location, ok := normalizeLocation(field(ColumnLocationFlag))
	if !ok {
		return models.Reading{}, SkipBadLocation, false
	}

	return models.Reading{
		RecordID:     recordID,
		DeviceID:     field(ColumnDeviceID),
		ObservedAt:   observedAt,
		Temperature:  temperature,
		LocationFlag: location,
	}, "", true
}

// ParseTimestamp tries the configured layouts, then dateparse.
func (n *Normalizer) ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range n.layouts {
		if ts, err := time.ParseInLocation(layout, raw, n.location); err == nil {
			return ts.UTC(), nil
		}
	}
	ts, err := dateparse.ParseIn(raw, n.location)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// parseTemperature accepts values that fit the 32-bit temperature column.
func parseTemperature(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	f = math.Round(f)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("temperature %q is not finite", raw)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("temperature %q out of range", raw)
	}
	return int(f), nil
}

// normalizeLocation folds the flag onto In or Out. An empty flag is kept empty.
func normalizeLocation(raw string) (string, bool) {
	switch strings.ToLower(raw) {
	case "":
		return "", true
	case "in", "indoor":
		return models.LocationIn, true
	case "out", "outdoor":
		return models.LocationOut, true
	default:
		return "", false
	}
}

func foldColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
}

package ingest

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"tempdash/backend/services/dashboard-service/internal/models"
)

var sourceHeader = []string{"id", "room_id/id", "noted_date", "temp", "out/in"}

func TestNormalizeRenamesAndParses(t *testing.T) {
	table := RawTable{
		Header: sourceHeader,
		Rows: [][]string{
			{"__export__.temp_log_196134_bd201015", "Room Admin", "08-12-2018 09:30", "29", "In"},
			{"__export__.temp_log_196131_7bca51bc", "Room Admin", "08-12-2018 09:30", "41.6", "out"},
		},
	}

	batch, err := NewNormalizer(nil, nil, nil).Normalize(table)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(batch.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(batch.Readings))
	}

	first := batch.Readings[0]
	if first.RecordID != "__export__.temp_log_196134_bd201015" || first.DeviceID != "Room Admin" {
		t.Fatalf("unexpected identity fields %+v", first)
	}
	want := time.Date(2018, time.December, 8, 9, 30, 0, 0, time.UTC)
	if !first.ObservedAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, first.ObservedAt)
	}
	if first.Temperature != 29 || first.LocationFlag != models.LocationIn {
		t.Fatalf("unexpected measurement %+v", first)
	}
	if batch.Readings[1].Temperature != 42 || batch.Readings[1].LocationFlag != models.LocationOut {
		t.Fatalf("unexpected second reading %+v", batch.Readings[1])
	}
}

func TestNormalizeDropsUnparseableRows(t *testing.T) {
	table := RawTable{
		Header: sourceHeader,
		Rows: [][]string{
			{"A1", "Room 1", "08-12-2018 09:30", "29", "In"},
			{"A2", "Room 1", "", "29", "In"},
			{"A3", "Room 1", "not a date", "29", "In"},
			{"A4", "Room 1", "08-12-2018 09:31", "warm", "In"},
			{"", "Room 1", "08-12-2018 09:32", "29", "In"},
			{"A6", "Room 1"},
		},
	}

	batch, err := NewNormalizer(nil, nil, nil).Normalize(table)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(batch.Readings) != 1 || batch.Readings[0].RecordID != "A1" {
		t.Fatalf("expected only A1 to survive, got %+v", batch.Readings)
	}
	if batch.Skipped[SkipBadTimestamp] != 3 {
		t.Fatalf("expected 3 timestamp skips, got %d", batch.Skipped[SkipBadTimestamp])
	}
	if batch.Skipped[SkipBadTemperature] != 1 || batch.Skipped[SkipMissingID] != 1 {
		t.Fatalf("unexpected skip counts %v", batch.Skipped)
	}
	if batch.SkippedTotal() != 5 {
		t.Fatalf("expected 5 skipped rows, got %d", batch.SkippedTotal())
	}
}

func TestNormalizeRejectsValuesOutsideColumnRange(t *testing.T) {
	table := RawTable{
		Header: sourceHeader,
		Rows: [][]string{
			{"A1", "Room 1", "08-12-2018 09:30", "1e20", "In"},
			{"A2", "Room 1", "08-12-2018 09:30", "3000000000", "In"},
			{"A3", "Room 1", "08-12-2018 09:30", "-2147483649", "In"},
			{"A4", "Room 1", "08-12-2018 09:30", "2147483647", "In"},
			{"A5", "Room 1", "08-12-2018 09:30", "29", "Outdoor-sensor"},
			{"A6", "Room 1", "08-12-2018 09:30", "29", "Indoor"},
			{"A7", "Room 1", "08-12-2018 09:30", "NaN", "In"},
		},
	}

	batch, err := NewNormalizer(nil, nil, nil).Normalize(table)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(batch.Readings) != 2 {
		t.Fatalf("expected A4 and A6 to survive, got %+v", batch.Readings)
	}
	if batch.Readings[0].RecordID != "A4" || batch.Readings[0].Temperature != 2147483647 {
		t.Fatalf("unexpected reading %+v", batch.Readings[0])
	}
	if batch.Readings[1].RecordID != "A6" || batch.Readings[1].LocationFlag != models.LocationIn {
		t.Fatalf("unexpected reading %+v", batch.Readings[1])
	}
	if batch.Skipped[SkipBadTemperature] != 4 {
		t.Fatalf("expected 4 temperature skips, got %v", batch.Skipped)
	}
	if batch.Skipped[SkipBadLocation] != 1 {
		t.Fatalf("expected 1 location skip, got %v", batch.Skipped)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)
	first, err := n.Normalize(RawTable{
		Header: sourceHeader,
		Rows: [][]string{
			{"A1", "Room 1", "08-12-2018 09:30", "29", "In"},
			{"A2", "Room 2", "2018-12-09 10:15:00", "31", "Out"},
		},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	second, err := n.Normalize(canonicalTable(first.Readings))
	if err != nil {
		t.Fatalf("renormalize: %v", err)
	}
	if second.SkippedTotal() != 0 || len(second.Readings) != len(first.Readings) {
		t.Fatalf("expected no-op, got %+v", second)
	}
	for i := range first.Readings {
		a, b := first.Readings[i], second.Readings[i]
		if a.RecordID != b.RecordID || a.DeviceID != b.DeviceID || !a.ObservedAt.Equal(b.ObservedAt) ||
			a.Temperature != b.Temperature || a.LocationFlag != b.LocationFlag {
			t.Fatalf("reading %d changed: %+v -> %+v", i, a, b)
		}
	}
}

func TestNormalizeMissingColumn(t *testing.T) {
	_, err := NewNormalizer(nil, nil, nil).Normalize(RawTable{Header: []string{"id", "temp"}})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestNormalizeCustomRenames(t *testing.T) {
	n := NewNormalizer(map[string]string{"Sensor": ColumnDeviceID, "When": ColumnObservedAt, "uid": ColumnRecordID, "celsius": ColumnTemperature}, nil, nil)
	batch, err := n.Normalize(RawTable{
		Header: []string{"uid", "sensor", "when", "celsius"},
		Rows:   [][]string{{"x", "s1", "2024-02-01T10:00:00Z", "20"}},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(batch.Readings) != 1 || batch.Readings[0].DeviceID != "s1" || batch.Readings[0].LocationFlag != "" {
		t.Fatalf("unexpected readings %+v", batch.Readings)
	}
}

func TestParseTimestampFallsBackToDateparse(t *testing.T) {
	ts, err := NewNormalizer(nil, nil, nil).ParseTimestamp("2019/02/03 10:04")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ts.Year() != 2019 || ts.Month() != time.February || ts.Day() != 3 {
		t.Fatalf("unexpected timestamp %s", ts)
	}
}

func canonicalTable(readings []models.Reading) RawTable {
	table := RawTable{Header: []string{ColumnRecordID, ColumnDeviceID, ColumnObservedAt, ColumnTemperature, ColumnLocationFlag}}
	for _, r := range readings {
		table.Rows = append(table.Rows, []string{
			r.RecordID,
			r.DeviceID,
			r.ObservedAt.Format(time.RFC3339Nano),
			strconv.Itoa(r.Temperature),
			r.LocationFlag,
		})
	}
	return table
}

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSourceUnavailable is returned when the readings file cannot be opened or decoded.
var ErrSourceUnavailable = errors.New("ingest: source unavailable")

const utf8BOM = "\ufeff"

// RawTable is the file content with its original column names.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// ReadFile loads a delimited file with a header row. delimiter 0 means ','.
func ReadFile(path string, delimiter rune) (RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	table, err := Read(f, delimiter)
	if err != nil {
		return RawTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Read decodes a delimited stream with a header row.
func Read(r io.Reader, delimiter rune) (RawTable, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return RawTable{}, fmt.Errorf("%w: missing header row", ErrSourceUnavailable)
	}
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: read header: %w", ErrSourceUnavailable, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := RawTable{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RawTable{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

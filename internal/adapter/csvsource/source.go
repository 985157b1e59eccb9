// Package csvsource reads case-count rows from a CSV export with a header
// line.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// Columns names the header fields holding each value.
type Columns struct {
	Region string
	Date   string
	Count  string
}

// DefaultColumns match the public dashboard export.
var DefaultColumns = Columns{
	Region: "areaName",
	Date:   "date",
	Count:  "newCasesByPublishDateRollingSum",
}

// Source reads all rows of one CSV file.
type Source struct {
	path    string
	columns Columns
}

// New creates a Source for the file at path. Empty column names fall back to
// DefaultColumns.
func New(path string, columns Columns) *Source {
	if columns.Region == "" {
		columns.Region = DefaultColumns.Region
	}
	if columns.Date == "" {
		columns.Date = DefaultColumns.Date
	}
	if columns.Count == "" {
		columns.Count = DefaultColumns.Count
	}
	return &Source{path: path, columns: columns}
}

func (s *Source) Name() string { return "csv:" + s.path }

// ReadRows opens the file and decodes every record.
func (s *Source) ReadRows(ctx context.Context) ([]domain.RawRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(ctx, f, s.columns)
}

// Decode reads a header line followed by records. Records that cannot be
// parsed are kept as empty rows so ingestion drops and reports them.
func Decode(ctx context.Context, r io.Reader, columns Columns) ([]domain.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx, err := columnIndex(header, columns)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	for n := 0; ; n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, domain.RawRow{})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		rows = append(rows, domain.RawRow{
			Region: field(record, idx[0]),
			Date:   field(record, idx[1]),
			Count:  field(record, idx[2]),
		})
	}
	return rows, nil
}

func columnIndex(header []string, columns Columns) ([3]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// Exports often start with a UTF-8 byte order mark.
		pos[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	var idx [3]int
	for i, name := range []string{columns.Region, columns.Date, columns.Count} {
		p, ok := pos[name]
		if !ok {
			return idx, fmt.Errorf("csv header is missing column %q", name)
		}
		idx[i] = p
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// Package parquet reads and writes case-count rows as Parquet files. The
// schema is derived from the parquet tags on domain.RawRow.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

const readBatch = 4096

// Source reads all rows of one Parquet file.
type Source struct {
	path string
}

// NewSource creates a Source for the file at path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Name() string { return "parquet:" + s.path }

// ReadRows opens the file and reads every row.
func (s *Source) ReadRows(ctx context.Context) ([]domain.RawRow, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadRows(ctx, file)
}

// ReadRows reads every row from r.
func ReadRows(ctx context.Context, r io.ReaderAt) ([]domain.RawRow, error) {
	reader := parquet.NewGenericReader[domain.RawRow](r)
	defer func() { _ = reader.Close() }()

	rows := make([]domain.RawRow, 0, reader.NumRows())
	buf := make([]domain.RawRow, readBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			return rows, nil
		}
	}
}

// WriteRows writes rows to a new Parquet file at outputPath.
func WriteRows(rows []domain.RawRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// Write encodes rows to w.
func Write(w io.Writer, rows []domain.RawRow) error {
	writer := parquet.NewGenericWriter[domain.RawRow](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataNotFound is returned when a region has no usable series.
	ErrDataNotFound = errors.New("data not found")

	// ErrInvalidSegmentCount is returned for a requested segment count below 1.
	ErrInvalidSegmentCount = errors.New("invalid segment count")
)

// IngestionError reports a failure of the bulk load as a whole, e.g. the
// row source could not be opened. Individual bad rows are RowErrors instead.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RowError describes one ingestion row that was dropped. Row is the 1-based
// position among the data rows, header excluded.
type RowError struct {
	Row    int
	Region string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Region, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// DegradedSegmentationWarning accompanies a valid Story that has fewer
// segments than requested because the series is too short to split further.
type DegradedSegmentationWarning struct {
	Region    string
	Requested int
	Achieved  int
}

func (w *DegradedSegmentationWarning) Error() string {
	return fmt.Sprintf("degraded segmentation for %q: requested %d segments, produced %d",
		w.Region, w.Requested, w.Achieved)
}

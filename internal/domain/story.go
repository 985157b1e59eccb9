package domain

import "time"

// CurvePoint is one sample of an importance curve.
type CurvePoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}

// ImportanceCurve is aligned 1:1 with the Series it was computed over.
type ImportanceCurve []CurvePoint

// Bound is a contiguous run of series indices [Start, End] dominated by a
// nearby event. Weights holds the curve value for each index in the run.
type Bound struct {
	Start     int       `json:"start"`
	End       int       `json:"end"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Peak      int       `json:"peak"`
	Weights   []float64 `json:"weights"`
}

// Contains reports whether index i lies inside the bound.
func (b Bound) Contains(i int) bool {
	return i >= b.Start && i <= b.End
}

// WeightAt returns the bound's weight at index i, or 0 outside the bound.
func (b Bound) WeightAt(i int) float64 {
	if !b.Contains(i) {
		return 0
	}
	return b.Weights[i-b.Start]
}

// Envelope is an ascending, non-overlapping set of Bounds.
type Envelope []Bound

// WeightAt returns the weight of the bound covering index i, or 0.
func (e Envelope) WeightAt(i int) float64 {
	for _, b := range e {
		if b.Contains(i) {
			return b.WeightAt(i)
		}
		if b.Start > i {
			break
		}
	}
	return 0
}

// Boundary is a candidate cut: a new segment starts at Index.
type Boundary struct {
	Index int       `json:"index"`
	Date  time.Time `json:"date"`
	Cost  float64   `json:"cost"`
}

// Position classifies a segment within its story.
type Position string

const (
	PositionFirst  Position = "FIRST"
	PositionMiddle Position = "MIDDLE"
	PositionLast   Position = "LAST"
)

// SegmentPoint is a series point together with the events falling on its day.
type SegmentPoint struct {
	SeriesPoint
	Events []Event `json:"events,omitempty"`
}

// Segment is a contiguous, non-empty slice [Start, End] of a series.
type Segment struct {
	Index    int            `json:"index"`
	Count    int            `json:"-"`
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Position Position       `json:"position"`
	Points   []SegmentPoint `json:"-"`
}

// IsFirst reports whether the segment opens the story.
func (s Segment) IsFirst() bool { return s.Index == 0 }

// IsLast reports whether the segment closes the story.
func (s Segment) IsLast() bool { return s.Index == s.Count-1 }

// Len returns the number of points in the segment.
func (s Segment) Len() int { return s.End - s.Start + 1 }

// Story is the complete result of one (region, segment count) selection.
type Story struct {
	Region            string       `json:"region"`
	RequestedSegments int          `json:"requested_segments"`
	Segments          []Segment    `json:"segments"`
	Degraded          bool         `json:"degraded"`
	Boundaries        []Boundary   `json:"boundaries"`
	Annotations       []Annotation `json:"annotations"`
	Series            Series       `json:"series"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// SegmentRanges returns the inclusive [start, end] index range of every
// segment in order.
func (s Story) SegmentRanges() [][2]int {
	out := make([][2]int, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = [2]int{seg.Start, seg.End}
	}
	return out
}

package story

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// BoundarySpacing is the share of the series length that leading cut
// candidates keep between each other.
const BoundarySpacing = 0.1

// CandidateBoundaries ranks every possible cut, safest first. A cut at index c
// starts a new segment at c; its cost is the larger envelope weight of the two
// points it separates, so cuts outside any bound cost nothing. Ties resolve to
// the earlier index. A candidate that lands within BoundarySpacing of an
// already accepted one, or of either end of the series, is moved behind all
// accepted candidates, keeping its relative order, so the list always holds
// all len(series)-1 cuts.
func CandidateBoundaries(env domain.Envelope, series domain.Series) []domain.Boundary {
	n := len(series)
	if n < 2 {
		return nil
	}

	ranked := make([]domain.Boundary, 0, n-1)
	for c := 1; c < n; c++ {
		ranked = append(ranked, domain.Boundary{
			Index: c,
			Date:  series[c].Date,
			Cost:  max(env.WeightAt(c-1), env.WeightAt(c)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Cost != ranked[j].Cost {
			return ranked[i].Cost < ranked[j].Cost
		}
		return ranked[i].Index < ranked[j].Index
	})

	spacing := max(1, int(float64(n)*BoundarySpacing))
	// Series ends count as accepted cuts so edge segments keep the spacing.
	accepted := make([]domain.Boundary, 0, len(ranked)+2)
	accepted = append(accepted, domain.Boundary{Index: 0}, domain.Boundary{Index: n})
	var deferred []domain.Boundary
	for _, b := range ranked {
		if tooClose(b, accepted, spacing) {
			deferred = append(deferred, b)
			continue
		}
		accepted = append(accepted, b)
	}
	return append(accepted[2:], deferred...)
}

func tooClose(b domain.Boundary, accepted []domain.Boundary, spacing int) bool {
	for _, a := range accepted {
		d := b.Index - a.Index
		if d < 0 {
			d = -d
		}
		if d < spacing {
			return true
		}
	}
	return false
}

// SelectBoundaries takes the first segments-1 candidates and orders them by
// date. Fewer are returned when the candidate list is shorter.
func SelectBoundaries(candidates []domain.Boundary, segments int) []domain.Boundary {
	k := min(max(segments-1, 0), len(candidates))
	cuts := make([]domain.Boundary, k)
	copy(cuts, candidates[:k])
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Date.Before(cuts[j].Date) })
	return cuts
}

// Partition splits the series at the given cuts and attaches every event to
// the point on the same day. Cuts outside (0, len-1] or repeating an earlier
// cut are ignored, so every segment is non-empty and the segments cover the
// whole series in order. An empty series fails with ErrDataNotFound.
func Partition(events []domain.Event, boundaries []domain.Boundary, series domain.Series) ([]domain.Segment, error) {
	n := len(series)
	if n == 0 {
		return nil, fmt.Errorf("partition: %w", domain.ErrDataNotFound)
	}

	cuts := make([]int, 0, len(boundaries))
	for _, b := range boundaries {
		cuts = append(cuts, b.Index)
	}
	sort.Ints(cuts)

	starts := []int{0}
	for _, c := range cuts {
		if c <= starts[len(starts)-1] || c >= n {
			continue
		}
		starts = append(starts, c)
	}

	byDay := make(map[int64][]domain.Event)
	for _, e := range domain.SortEvents(events) {
		key := e.Date().Unix()
		byDay[key] = append(byDay[key], e)
	}

	segments := make([]domain.Segment, len(starts))
	for i, start := range starts {
		end := n - 1
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}

		points := make([]domain.SegmentPoint, 0, end-start+1)
		for j := start; j <= end; j++ {
			points = append(points, domain.SegmentPoint{
				SeriesPoint: series[j],
				Events:      byDay[domain.Day(series[j].Date).Unix()],
			})
		}

		segments[i] = domain.Segment{
			Index:    i,
			Count:    len(starts),
			Start:    start,
			End:      end,
			Position: position(i, len(starts)),
			Points:   points,
		}
	}
	return segments, nil
}

func position(i, count int) domain.Position {
	switch {
	case i == 0:
		return domain.PositionFirst
	case i == count-1:
		return domain.PositionLast
	default:
		return domain.PositionMiddle
	}
}

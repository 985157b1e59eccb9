package story

import (
	"sort"
	"time"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// MinPeakSeparation is the minimum distance between two reported peaks.
const MinPeakSeparation = 7 * 24 * time.Hour

const (
	minRank = 1
	maxRank = 5
)

// DetectPeaks finds plateau-tolerant local maxima: a point strictly above its
// left neighbour and not below its right one. The first and last points are
// never peaks. Peaks closer than MinPeakSeparation are merged into the taller
// one; on equal height the earlier peak stays. Returned peaks are unranked and
// ordered by date.
func DetectPeaks(series domain.Series) []domain.Event {
	var peaks []domain.Event
	for i := 1; i < len(series)-1; i++ {
		v := series[i].Value
		if v <= series[i-1].Value || v < series[i+1].Value {
			continue
		}

		candidate := domain.NewPeakEvent(series[i], i)
		if n := len(peaks); n > 0 && candidate.Date().Sub(peaks[n-1].Date()) < MinPeakSeparation {
			if candidate.Height() > peaks[n-1].Height() {
				peaks[n-1] = candidate
			}
			continue
		}
		peaks = append(peaks, candidate)
	}
	return peaks
}

// RankPeaks assigns height quintile ranks. With peaks sorted ascending by
// height, peak i gets 1 + floor(i / (N/5)) clamped to [1, 5]. The result keeps
// the input order. An empty input returns nil.
func RankPeaks(peaks []domain.Event) []domain.Event {
	n := len(peaks)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return peaks[order[a]].Height() < peaks[order[b]].Height()
	})

	ranked := make([]domain.Event, n)
	for pos, idx := range order {
		ranked[idx] = peaks[idx].WithRank(quintileRank(pos, n))
	}
	return ranked
}

// quintileRank computes 1 + floor(pos / (n/5)) in integer arithmetic.
func quintileRank(pos, n int) int {
	r := 1 + (pos*5)/n
	return min(max(r, minRank), maxRank)
}

// TopRank returns the highest rank among peak events, or 0 if there are none.
func TopRank(events []domain.Event) int {
	top := 0
	for _, e := range events {
		if e.Kind() == domain.KindPeak && e.Rank() > top {
			top = e.Rank()
		}
	}
	return top
}

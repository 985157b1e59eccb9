package story

import (
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

const (
	// KernelSigmaDays is the standard deviation of the importance kernel.
	KernelSigmaDays = 7.0

	// KernelAmplitude scales the kernel height per rank point.
	KernelAmplitude = 1.0

	// EnvelopeRatio is the share of a hill's maximum above which the curve
	// still counts as important.
	EnvelopeRatio = 0.5
)

// kernel is the contribution of an event of the given rank at a distance of
// d from its date.
func kernel(rank int, d time.Duration) float64 {
	days := d.Hours() / 24
	return float64(rank) * KernelAmplitude * math.Exp(-(days*days)/(2*KernelSigmaDays*KernelSigmaDays))
}

// ToImportanceCurve sums a bell-shaped kernel per event over every series
// date. Each kernel peaks at its event's date with height rank*KernelAmplitude
// and decays symmetrically with distance.
func ToImportanceCurve(events []domain.Event, series domain.Series) domain.ImportanceCurve {
	curve := make(domain.ImportanceCurve, len(series))
	for i, p := range series {
		var w float64
		for _, e := range events {
			w += kernel(e.Rank(), p.Date.Sub(e.Date()))
		}
		curve[i] = domain.CurvePoint{Date: p.Date, Weight: w}
	}
	return curve
}

// ToEnvelope marks the hills of the curve. For every local maximum with a
// positive weight, the bound extends outward while the curve keeps falling
// and stays at or above EnvelopeRatio of that maximum. Overlapping or
// touching hills merge.
func ToEnvelope(curve domain.ImportanceCurve) domain.Envelope {
	n := len(curve)
	w := func(i int) float64 { return curve[i].Weight }

	var bounds []domain.Bound
	for m := 0; m < n; m++ {
		if w(m) <= 0 {
			continue
		}
		if (m > 0 && w(m-1) > w(m)) || (m < n-1 && w(m+1) > w(m)) {
			continue
		}

		floor := EnvelopeRatio * w(m)
		lo, hi := m, m
		for lo > 0 && w(lo-1) <= w(lo) && w(lo-1) >= floor {
			lo--
		}
		for hi < n-1 && w(hi+1) <= w(hi) && w(hi+1) >= floor {
			hi++
		}

		weights := make([]float64, hi-lo+1)
		for i := range weights {
			weights[i] = w(lo + i)
		}
		bounds = append(bounds, domain.Bound{
			Start:     lo,
			End:       hi,
			StartDate: curve[lo].Date,
			EndDate:   curve[hi].Date,
			Peak:      m,
			Weights:   weights,
		})
	}
	return mergeBounds(bounds)
}

// FuseEnvelopes unions envelopes computed over the same series. Overlapping
// or adjacent bounds merge; where two bounds overlap the larger weight wins.
func FuseEnvelopes(envelopes ...domain.Envelope) domain.Envelope {
	var all []domain.Bound
	for _, env := range envelopes {
		all = append(all, env...)
	}
	return mergeBounds(all)
}

func mergeBounds(bounds []domain.Bound) domain.Envelope {
	if len(bounds) == 0 {
		return nil
	}
	sorted := make([]domain.Bound, len(bounds))
	copy(sorted, bounds)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := domain.Envelope{sorted[0]}
	for _, b := range sorted[1:] {
		cur := &out[len(out)-1]
		if b.Start > cur.End+1 {
			out = append(out, b)
			continue
		}
		*cur = unionBound(*cur, b)
	}
	return out
}

// unionBound joins two bounds with a.Start <= b.Start that overlap or touch.
func unionBound(a, b domain.Bound) domain.Bound {
	end, endDate := a.End, a.EndDate
	if b.End > end {
		end, endDate = b.End, b.EndDate
	}

	u := domain.Bound{
		Start:     a.Start,
		End:       end,
		StartDate: a.StartDate,
		EndDate:   endDate,
		Weights:   make([]float64, end-a.Start+1),
	}
	peak := -1
	for i := u.Start; i <= u.End; i++ {
		v := max(a.WeightAt(i), b.WeightAt(i))
		u.Weights[i-u.Start] = v
		if peak < 0 || v > u.Weights[peak-u.Start] {
			peak = i
		}
	}
	u.Peak = peak
	return u
}

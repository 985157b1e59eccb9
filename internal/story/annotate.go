package story

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

const (
	// RankThreshold is the rank an event must exceed to be narrated.
	RankThreshold = 3

	SteepSlope   = 0.25
	ShallowSlope = 0.05

	VeryHighCases   = 200
	NoticeableCases = 50
)

// Trend classifies the least-squares slope of a segment.
type Trend int

const (
	TrendFlat Trend = iota
	TrendShallowUp
	TrendSteepUp
	TrendShallowDown
	TrendSteepDown
)

// ClassifyTrend buckets a slope by its magnitude: >= SteepSlope is steep,
// >= ShallowSlope is shallow, anything smaller is flat.
func ClassifyTrend(slope float64) Trend {
	abs := math.Abs(slope)
	switch {
	case abs >= SteepSlope && slope > 0:
		return TrendSteepUp
	case abs >= SteepSlope:
		return TrendSteepDown
	case abs >= ShallowSlope && slope > 0:
		return TrendShallowUp
	case abs >= ShallowSlope:
		return TrendShallowDown
	default:
		return TrendFlat
	}
}

// Slope is the least-squares gradient of values against their index. Fewer
// than two values, or a degenerate fit, give 0.
func Slope(values []float64) float64 {
	n := float64(len(values))
	if len(values) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}

// engine collects the annotations of one region.
type engine struct {
	region  string
	series  domain.Series
	topRank int
	out     []domain.Annotation
}

// Annotate runs the rule set over every segment and returns the sequenced
// annotations: sorted by anchor, closed by a textless sentinel at the last
// index, with each StartIndex chained to the previous EndIndex.
func Annotate(region string, series domain.Series, segments []domain.Segment) ([]domain.Annotation, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("annotate %q: %w", region, domain.ErrDataNotFound)
	}

	var events []domain.Event
	for _, seg := range segments {
		for _, p := range seg.Points {
			events = append(events, p.Events...)
		}
	}

	e := &engine{region: region, series: series, topRank: TopRank(events)}
	for _, seg := range segments {
		if len(seg.Points) == 0 {
			return nil, fmt.Errorf("annotate %q: segment %d is empty", region, seg.Index)
		}
		if err := e.segment(seg); err != nil {
			return nil, err
		}
	}

	return Sequence(e.out, series)
}

func (e *engine) segment(seg domain.Segment) error {
	var narrated *domain.Event
	var errs []error

	if seg.IsFirst() {
		errs = append(errs, e.openingTrend(seg, seg.IsLast()))
		if seg.IsLast() {
			errs = append(errs, e.closingTrend(seg))
		}
		errs = append(errs, e.firstNonZero(seg))
		var err error
		narrated, err = e.highestPeak(seg)
		errs = append(errs, err)
	} else if seg.IsLast() {
		errs = append(errs, e.closingTrend(seg))
	}

	errs = append(errs, e.passthrough(seg, narrated))
	return errors.Join(errs...)
}

// qualifies reports whether a peak is worth narrating. When a region has too
// few peaks to reach the upper rank tiers, its top-ranked peak still counts.
func (e *engine) qualifies(ev domain.Event) bool {
	if ev.Rank() > RankThreshold {
		return true
	}
	return e.topRank <= RankThreshold && ev.Rank() == e.topRank
}

func (e *engine) openingTrend(seg domain.Segment, closing bool) error {
	slope := Slope(segmentValues(seg))
	first, last := seg.Points[0].Date, seg.Points[len(seg.Points)-1].Date

	if slope > 0 {
		if err := e.add("The number of cases continues to grow.", first, false); err != nil {
			return err
		}
	}
	if closing {
		return nil
	}

	switch ClassifyTrend(slope) {
	case TrendSteepUp:
		return e.add(fmt.Sprintf("By %s, the number of cases continued to climb higher.", formatDate(last)), last, false)
	case TrendSteepDown:
		return e.add(fmt.Sprintf("By %s, the number of cases continued to come down noticeably.", formatDate(last)), last, false)
	case TrendShallowUp:
		return e.add(fmt.Sprintf("By %s, the number of cases continued to increase.", formatDate(last)), last, false)
	case TrendShallowDown:
		return e.add(fmt.Sprintf("By %s, the number of cases continued to decrease.", formatDate(last)), last, false)
	}
	return nil
}

func (e *engine) closingTrend(seg domain.Segment) error {
	last := seg.Points[len(seg.Points)-1].Date
	by := formatDate(last)

	var text string
	switch ClassifyTrend(Slope(segmentValues(seg))) {
	case TrendSteepUp:
		text = fmt.Sprintf("By %s, the number of cases continued to climb higher. "+
			"Let us all make a great effort to help bring the number down. Be safe, and support the NHS.", by)
	case TrendShallowUp:
		text = fmt.Sprintf("By %s, the number of cases continued to increase. "+
			"Let us continue to help bring the number down. Be safe, and support the NHS.", by)
	case TrendShallowDown:
		text = fmt.Sprintf("By %s, the number of cases continued to decrease. "+
			"The trend is encouraging. Let us be vigilant, and support the NHS.", by)
	case TrendSteepDown:
		text = fmt.Sprintf("By %s, the number of cases continued to come down noticeably. "+
			"We should continue to be vigilant.", by)
	default:
		text = flatText(e.series.Last().Value)
	}
	return e.add(text, last, false)
}

func flatText(cases float64) string {
	switch {
	case cases >= VeryHighCases:
		return "The number of cases remains very high. Let us be safe, and support the NHS."
	case cases >= NoticeableCases:
		return "The number of cases remains noticeable. Let us be safe and support the NHS."
	default:
		return "The number of cases remains low. We should continue to be vigilant."
	}
}

func (e *engine) firstNonZero(seg domain.Segment) error {
	for _, p := range seg.Points {
		if p.Value > 0 {
			text := fmt.Sprintf("On %s, %s recorded its first COVID-19 case.", formatDate(p.Date), e.region)
			return e.add(text, p.Date, false)
		}
	}
	return nil
}

// highestPeak narrates the tallest qualifying peak of the segment and returns
// it so passthrough does not repeat it.
func (e *engine) highestPeak(seg domain.Segment) (*domain.Event, error) {
	var best *domain.Event
	for _, p := range seg.Points {
		for i := range p.Events {
			ev := p.Events[i]
			if ev.Kind() != domain.KindPeak || !e.qualifies(ev) {
				continue
			}
			if best == nil || ev.Height() > best.Height() {
				best = &ev
			}
		}
	}
	if best == nil {
		return nil, nil
	}

	text := fmt.Sprintf("By %s, the number of cases reached %s.", formatDate(best.Date()), formatCount(best.Height()))
	return best, e.add(text, best.Date(), false)
}

func (e *engine) passthrough(seg domain.Segment, narrated *domain.Event) error {
	for _, p := range seg.Points {
		for _, ev := range p.Events {
			switch ev.Kind() {
			case domain.KindSemantic:
				if ev.Rank() <= RankThreshold {
					continue
				}
				if err := e.add(ev.Description(), ev.Date(), true); err != nil {
					return err
				}
			case domain.KindPeak:
				if !e.qualifies(ev) || (narrated != nil && ev.Date().Equal(narrated.Date())) {
					continue
				}
				text := fmt.Sprintf("By %s, the number of cases peaks at %s.", formatDate(ev.Date()), formatCount(ev.Height()))
				if err := e.add(text, ev.Date(), true); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *engine) add(text string, date time.Time, highlight bool) error {
	idx := e.series.FindDateIndex(date)
	if idx < 0 {
		return fmt.Errorf("annotate %q: %w", e.region, domain.ErrDataNotFound)
	}
	a, err := domain.NewAnnotation(domain.AnnotationSpec{
		Title:        formatDate(date),
		Text:         text,
		Target:       e.series[idx],
		AnchorIndex:  idx,
		SeriesLength: len(e.series),
		Highlight:    highlight,
		Fadeout:      true,
	})
	if err != nil {
		return err
	}
	e.out = append(e.out, a)
	return nil
}

// Sequence orders annotations by anchor, appends the terminal sentinel at the
// last series index and chains the intervals.
func Sequence(annotations []domain.Annotation, series domain.Series) ([]domain.Annotation, error) {
	n := len(series)
	sentinel, err := domain.NewAnnotation(domain.AnnotationSpec{
		Target:       series.Last(),
		AnchorIndex:  n - 1,
		SeriesLength: n,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Annotation, len(annotations), len(annotations)+1)
	copy(out, annotations)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnchorIndex < out[j].AnchorIndex })
	out = append(out, sentinel)

	out[0].StartIndex = 0
	for i := 1; i < len(out); i++ {
		out[i].StartIndex = out[i-1].EndIndex
	}
	return out, nil
}

func segmentValues(seg domain.Segment) []float64 {
	values := make([]float64, len(seg.Points))
	for i, p := range seg.Points {
		values[i] = p.Value
	}
	return values
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

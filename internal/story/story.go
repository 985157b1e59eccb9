package story

import (
	"fmt"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// Analysis holds everything about a series that does not depend on the
// requested segment count. It is computed once per region at load time.
type Analysis struct {
	Peaks      []domain.Event
	Events     []domain.Event
	Envelope   domain.Envelope
	Candidates []domain.Boundary
}

// Analyze detects and ranks peaks, fuses the peak and calendar importance
// envelopes and ranks the cut candidates.
func Analyze(series domain.Series, catalog []domain.Event) Analysis {
	peaks := RankPeaks(DetectPeaks(series))

	peakEnv := ToEnvelope(ToImportanceCurve(peaks, series))
	calendarEnv := ToEnvelope(ToImportanceCurve(catalog, series))
	env := FuseEnvelopes(peakEnv, calendarEnv)

	events := make([]domain.Event, 0, len(peaks)+len(catalog))
	events = append(events, peaks...)
	events = append(events, catalog...)

	return Analysis{
		Peaks:      peaks,
		Events:     domain.SortEvents(events),
		Envelope:   env,
		Candidates: CandidateBoundaries(env, series),
	}
}

// Tell builds the story of one region at the requested segment count. When
// the series is too short for that many segments the story is still returned,
// marked Degraded, together with a *DegradedSegmentationWarning.
func Tell(region string, series domain.Series, a Analysis, segments int) (domain.Story, error) {
	if segments < 1 {
		return domain.Story{}, fmt.Errorf("tell %q with %d segments: %w", region, segments, domain.ErrInvalidSegmentCount)
	}
	if len(series) == 0 {
		return domain.Story{}, fmt.Errorf("tell %q: %w", region, domain.ErrDataNotFound)
	}

	cuts := SelectBoundaries(a.Candidates, segments)
	parts, err := Partition(a.Events, cuts, series)
	if err != nil {
		return domain.Story{}, fmt.Errorf("tell %q: %w", region, err)
	}

	annotations, err := Annotate(region, series, parts)
	if err != nil {
		return domain.Story{}, err
	}

	st := domain.Story{
		Region:            region,
		RequestedSegments: segments,
		Segments:          parts,
		Boundaries:        cuts,
		Annotations:       annotations,
		Series:            series,
		GeneratedAt:       domain.Now(),
	}
	if len(parts) < segments {
		st.Degraded = true
		return st, &domain.DegradedSegmentationWarning{
			Region:    region,
			Requested: segments,
			Achieved:  len(parts),
		}
	}
	return st, nil
}

// Build is Analyze followed by Tell.
func Build(region string, series domain.Series, catalog []domain.Event, segments int) (domain.Story, error) {
	return Tell(region, series, Analyze(series, catalog), segments)
}

package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/story"
)

// State is one immutable loaded dataset: every region's series together with
// its segment-count independent analysis.
type State struct {
	LoadedAt time.Time

	regions  []string
	series   map[string]domain.Series
	analyses map[string]story.Analysis
	catalog  []domain.Event
	dropped  []error
}

// NewState builds the series of every region from rows and analyzes them.
func NewState(rows []domain.RawRow, catalog []domain.Event) *State {
	series, dropped := domain.BuildSeries(rows)

	st := &State{
		LoadedAt: domain.Now(),
		regions:  domain.SortedRegions(series),
		series:   series,
		analyses: make(map[string]story.Analysis, len(series)),
		catalog:  catalog,
		dropped:  dropped,
	}
	for _, region := range st.regions {
		st.analyses[region] = story.Analyze(series[region], catalog)
	}
	return st
}

// Regions returns the region names in lexical order.
func (st *State) Regions() []string {
	return slices.Clone(st.regions)
}

// Series returns the ordered series of region.
func (st *State) Series(region string) (domain.Series, bool) {
	s, ok := st.series[region]
	return s, ok
}

// Dropped is the number of rows skipped during ingestion.
func (st *State) Dropped() int {
	return len(st.dropped)
}

// Report joins the per-row errors of the load, or returns nil for a clean one.
func (st *State) Report() error {
	return errors.Join(st.dropped...)
}

// Select builds a fresh story for region.
func (st *State) Select(region string, segments int) (domain.Story, error) {
	if segments < 1 {
		return domain.Story{}, fmt.Errorf("select %q with %d segments: %w", region, segments, domain.ErrInvalidSegmentCount)
	}
	series, ok := st.series[region]
	if !ok || len(series) == 0 {
		return domain.Story{}, fmt.Errorf("select %q: %w", region, domain.ErrDataNotFound)
	}
	return story.Tell(region, series, st.analyses[region], segments)
}

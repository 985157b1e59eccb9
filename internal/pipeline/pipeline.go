package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// ErrNotLoaded is returned by selections made before the first successful load.
var ErrNotLoaded = errors.New("dataset not loaded")

// RowSource reads every ingestion row in one pass.
type RowSource interface {
	ReadRows(ctx context.Context) ([]domain.RawRow, error)
	Name() string
}

// Publisher writes finished stories to a downstream sink.
type Publisher interface {
	PublishStories(ctx context.Context, stories []domain.Story) error
}

// Service owns the loaded dataset and answers story selections.
type Service struct {
	source  RowSource
	catalog []domain.Event
	cache   *lru[cacheKey, cachedStory]
	logger  *slog.Logger
	metrics *observability.Metrics
	state   atomic.Pointer[State]
}

// New creates a Service reading from source. cacheSize bounds the number of
// memoized stories; zero or less disables the cache.
func New(source RowSource, catalog []domain.Event, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:  source,
		catalog: catalog,
		cache:   newLRU[cacheKey, cachedStory](cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a dataset has been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.state.Load() == nil {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// State returns the current dataset, or nil before the first load.
func (s *Service) State() *State {
	return s.state.Load()
}

// Run loads the dataset, retrying failed loads with exponential backoff until
// one succeeds or ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	// Start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		_, err := s.Load(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			s.logger.Info("load stopping", "reason", ctx.Err())
			return nil
		}
		s.logger.Error("load failed, retrying", "error", err, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// Load performs one bulk load and publishes the resulting State. Malformed
// rows do not fail the load; they are logged, counted and kept in the
// State's report. A source failure or an empty dataset returns an
// *IngestionError and leaves the previous State in place.
func (s *Service) Load(ctx context.Context) (*State, error) {
	start := time.Now()

	rows, err := s.source.ReadRows(ctx)
	if err != nil {
		s.metrics.LoadFailures.Inc()
		return nil, &domain.IngestionError{Source: s.source.Name(), Err: err}
	}

	st := NewState(rows, s.catalog)
	for _, d := range st.dropped {
		s.logger.Warn("row dropped", "error", d, "source", s.source.Name())
	}
	s.metrics.RowsDropped.Add(float64(len(st.dropped)))
	s.metrics.RowsIngested.Add(float64(len(rows) - len(st.dropped)))

	if len(st.regions) == 0 {
		s.metrics.LoadFailures.Inc()
		return nil, &domain.IngestionError{
			Source: s.source.Name(),
			Err:    fmt.Errorf("no usable rows: %w", domain.ErrDataNotFound),
		}
	}

	s.state.Store(st)
	s.cache.purge()

	s.metrics.RegionsLoaded.Set(float64(len(st.regions)))
	s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	s.metrics.ServiceReady.Set(1)
	s.logger.Info("dataset loaded",
		"source", s.source.Name(),
		"rows", len(rows),
		"rows_dropped", len(st.dropped),
		"regions", len(st.regions),
		"duration", time.Since(start),
	)
	return st, nil
}

// Regions lists the loaded regions in lexical order.
func (s *Service) Regions() ([]string, error) {
	st := s.state.Load()
	if st == nil {
		return nil, ErrNotLoaded
	}
	return st.Regions(), nil
}

// Select returns the story for region at the requested segment count,
// memoized per dataset. A degraded story comes back together with its
// *DegradedSegmentationWarning. Returned stories are shared and must not be
// modified.
func (s *Service) Select(region string, segments int) (domain.Story, error) {
	st := s.state.Load()
	if st == nil {
		s.metrics.Selections.WithLabelValues("not_ready").Inc()
		return domain.Story{}, ErrNotLoaded
	}

	key := cacheKey{loadedAt: st.LoadedAt, region: region, segments: segments}
	if e, ok := s.cache.get(key); ok {
		s.metrics.StoryCache.WithLabelValues("hit").Inc()
		s.metrics.Selections.WithLabelValues(outcome(e.err)).Inc()
		return e.story, e.err
	}
	s.metrics.StoryCache.WithLabelValues("miss").Inc()

	story, err := st.Select(region, segments)
	s.metrics.Selections.WithLabelValues(outcome(err)).Inc()

	var warn *domain.DegradedSegmentationWarning
	switch {
	case err == nil:
	case errors.As(err, &warn):
		s.metrics.DegradedStories.Inc()
		s.logger.Warn("degraded segmentation",
			"region", region, "segments", segments, "achieved", warn.Achieved)
	default:
		return domain.Story{}, err
	}

	s.metrics.AnnotationsPerStory.Observe(float64(len(story.Annotations)))
	s.cache.put(key, cachedStory{story: story, err: err})
	return story, err
}

// PublishAll builds every region's story at the given segment count and
// writes them through pub in one batch. Degraded stories are published too.
func (s *Service) PublishAll(ctx context.Context, pub Publisher, segments int) (int, error) {
	st := s.state.Load()
	if st == nil {
		return 0, ErrNotLoaded
	}

	stories := make([]domain.Story, 0, len(st.regions))
	for _, region := range st.regions {
		story, err := s.Select(region, segments)
		var warn *domain.DegradedSegmentationWarning
		if err != nil && !errors.As(err, &warn) {
			return 0, fmt.Errorf("build story for %q: %w", region, err)
		}
		stories = append(stories, story)
	}

	if err := pub.PublishStories(ctx, stories); err != nil {
		s.logger.Error("publish stories failed", "error", err, "stories", len(stories))
		return 0, fmt.Errorf("publish stories: %w", err)
	}
	s.metrics.StoriesPublished.Add(float64(len(stories)))
	s.logger.Info("stories published", "stories", len(stories), "segments", segments)
	return len(stories), nil
}

func outcome(err error) string {
	var warn *domain.DegradedSegmentationWarning
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &warn):
		return "degraded"
	case errors.Is(err, domain.ErrDataNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidSegmentCount):
		return "invalid"
	default:
		return "error"
	}
}

package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/observability"
	"github.com/couchcryptid/case-story-service/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	rows  []domain.RawRow
	err   error
	calls atomic.Int64
	// failures is the number of leading calls that return err.
	failures int64
}

func (m *mockSource) ReadRows(_ context.Context) ([]domain.RawRow, error) {
	n := m.calls.Add(1)
	if m.err != nil && (m.failures == 0 || n <= m.failures) {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockSource) Name() string { return "mock" }

type mockPublisher struct {
	published []domain.Story
	err       error
}

func (m *mockPublisher) PublishStories(_ context.Context, stories []domain.Story) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, stories...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func caseRows(region, start string, values ...int) []domain.RawRow {
	day, _ := time.Parse(time.DateOnly, start)
	rows := make([]domain.RawRow, len(values))
	for i, v := range values {
		rows[i] = domain.RawRow{
			Region: region,
			Date:   day.AddDate(0, 0, i).Format(time.DateOnly),
			Count:  fmt.Sprint(v),
		}
	}
	return rows
}

func fixtureRows() []domain.RawRow {
	rows := caseRows("Leeds", "2020-03-22", 0, 0, 5, 20, 15, 30, 25, 10, 5, 2)
	rows = append(rows, caseRows("York", "2020-03-22", 1, 2, 3)...)
	rows = append(rows,
		domain.RawRow{Region: "York", Date: "not-a-date", Count: "4"},
		domain.RawRow{Region: "York", Date: "2020-03-22", Count: "9"},
	)
	return rows
}

func newService(src pipeline.RowSource, metrics *observability.Metrics) *pipeline.Service {
	return pipeline.New(src, domain.DefaultCatalog(), 16, slog.Default(), metrics)
}

// --- tests ---

func TestService_Load(t *testing.T) {
	fixed := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	metrics := newTestMetrics()
	svc := newService(&mockSource{rows: fixtureRows()}, metrics)
	require.Error(t, svc.CheckReadiness(context.Background()))

	st, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixed, st.LoadedAt)
	assert.Equal(t, []string{"Leeds", "York"}, st.Regions())
	assert.Equal(t, 2, st.Dropped())

	var rowErr *domain.RowError
	require.ErrorAs(t, st.Report(), &rowErr)

	york, ok := st.Series("York")
	require.True(t, ok)
	assert.Len(t, york, 3)
	assert.Equal(t, 1.0, york[0].Value, "first occurrence of a date wins")

	require.NoError(t, svc.CheckReadiness(context.Background()))
	assert.Equal(t, 13.0, testutil.ToFloat64(metrics.RowsIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RegionsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServiceReady))
}

func TestService_Load_SourceError(t *testing.T) {
	metrics := newTestMetrics()
	svc := newService(&mockSource{err: errors.New("disk on fire")}, metrics)

	_, err := svc.Load(context.Background())

	var ingest *domain.IngestionError
	require.ErrorAs(t, err, &ingest)
	assert.Equal(t, "mock", ingest.Source)
	assert.Error(t, svc.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadFailures))
}

func TestService_Load_NoUsableRows(t *testing.T) {
	svc := newService(&mockSource{rows: []domain.RawRow{{Region: "X", Date: "bad", Count: "1"}}}, newTestMetrics())

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
	assert.Nil(t, svc.State())
}

func TestService_Run_RetriesUntilLoaded(t *testing.T) {
	src := &mockSource{rows: fixtureRows(), err: errors.New("transient"), failures: 1}
	svc := newService(src, newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, svc.Run(ctx))
	assert.Equal(t, int64(2), src.calls.Load())
	assert.NoError(t, svc.CheckReadiness(ctx))
}

func TestService_Run_StopsOnCancel(t *testing.T) {
	src := &mockSource{err: errors.New("always down")}
	svc := newService(src, newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx))
	assert.Error(t, svc.CheckReadiness(context.Background()))
}

func TestService_Select(t *testing.T) {
	metrics := newTestMetrics()
	svc := newService(&mockSource{rows: fixtureRows()}, metrics)

	_, err := svc.Select("Leeds", 3)
	require.ErrorIs(t, err, pipeline.ErrNotLoaded)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	t.Run("story", func(t *testing.T) {
		st, err := svc.Select("Leeds", 3)
		require.NoError(t, err)
		assert.Equal(t, "Leeds", st.Region)
		assert.Len(t, st.Segments, 3)
		assert.Equal(t, "Start of First Lockdown.", st.Annotations[2].Text)
	})

	t.Run("cached on repeat", func(t *testing.T) {
		_, err := svc.Select("Leeds", 3)
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoryCache.WithLabelValues("hit")))
	})

	t.Run("degraded", func(t *testing.T) {
		st, err := svc.Select("York", 5)
		var warn *domain.DegradedSegmentationWarning
		require.ErrorAs(t, err, &warn)
		assert.True(t, st.Degraded)
		assert.Len(t, st.Segments, 3)

		_, err = svc.Select("York", 5)
		require.ErrorAs(t, err, &warn, "warning survives the cache")
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Selections.WithLabelValues("degraded")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DegradedStories))
	})

	t.Run("unknown region", func(t *testing.T) {
		_, err := svc.Select("Atlantis", 3)
		assert.ErrorIs(t, err, domain.ErrDataNotFound)
	})

	t.Run("invalid segment count", func(t *testing.T) {
		_, err := svc.Select("Leeds", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidSegmentCount)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Selections.WithLabelValues("invalid")))
	})
}

func TestService_SelectAfterReloadIsFresh(t *testing.T) {
	src := &mockSource{rows: caseRows("Leeds", "2020-03-22", 1, 2, 3, 4)}
	svc := newService(src, newTestMetrics())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	first, err := svc.Select("Leeds", 1)
	require.NoError(t, err)

	src.rows = caseRows("Leeds", "2020-03-22", 1, 2, 3, 4, 5, 6)
	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	second, err := svc.Select("Leeds", 1)
	require.NoError(t, err)
	assert.Len(t, first.Series, 4)
	assert.Len(t, second.Series, 6)
}

func TestService_PublishAll(t *testing.T) {
	metrics := newTestMetrics()
	svc := newService(&mockSource{rows: fixtureRows()}, metrics)
	pub := &mockPublisher{}

	_, err := svc.PublishAll(context.Background(), pub, 3)
	require.ErrorIs(t, err, pipeline.ErrNotLoaded)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	n, err := svc.PublishAll(context.Background(), pub, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.published, 2)
	assert.Equal(t, "Leeds", pub.published[0].Region)
	assert.True(t, pub.published[1].Degraded, "degraded stories are still published")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StoriesPublished))

	_, err = svc.PublishAll(context.Background(), &mockPublisher{err: errors.New("broker gone")}, 3)
	assert.Error(t, err)

	_, err = svc.PublishAll(context.Background(), pub, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSegmentCount)
}

package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

func TestSlope(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single point", []float64{5}, 0},
		{"constant", []float64{3, 3, 3, 3}, 0},
		{"unit rise", []float64{0, 1, 2}, 1},
		{"fall", []float64{6, 4, 2, 0}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Slope(tt.values), 1e-12)
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		slope float64
		want  Trend
	}{
		{0.25, TrendSteepUp},
		{3, TrendSteepUp},
		{0.2499, TrendShallowUp},
		{0.05, TrendShallowUp},
		{0.0499, TrendFlat},
		{0, TrendFlat},
		{-0.0499, TrendFlat},
		{-0.05, TrendShallowDown},
		{-0.25, TrendSteepDown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTrend(tt.slope), "slope %v", tt.slope)
	}
}

func TestFlatText(t *testing.T) {
	assert.Contains(t, flatText(200), "very high")
	assert.Contains(t, flatText(199.9), "noticeable")
	assert.Contains(t, flatText(50), "noticeable")
	assert.Contains(t, flatText(49), "low")
}

func TestAnnotate_IntervalLaw(t *testing.T) {
	s := dailySeries(t, "2020-03-01",
		1, 3, 8, 4, 2, 6, 15, 9, 3, 2, 1, 5, 12, 30, 18, 7, 4, 2, 9, 22, 11, 6, 3, 1, 1, 2, 4, 3, 2, 1)

	for k := 1; k <= 5; k++ {
		st, err := Build("North", s, domain.DefaultCatalog(), k)
		require.NoError(t, err)

		as := st.Annotations
		require.NotEmpty(t, as)
		assert.Equal(t, 0, as[0].StartIndex)
		for i := 1; i < len(as); i++ {
			assert.Equal(t, as[i-1].EndIndex, as[i].StartIndex)
			assert.LessOrEqual(t, as[i-1].AnchorIndex, as[i].AnchorIndex)
		}
		for _, a := range as {
			assert.GreaterOrEqual(t, a.AnchorIndex, 0)
			assert.Less(t, a.AnchorIndex, len(s))
			assert.Equal(t, s[a.AnchorIndex].Date, a.Date)
		}

		last := as[len(as)-1]
		assert.True(t, last.IsSentinel())
		assert.Equal(t, len(s)-1, last.AnchorIndex)
		assert.False(t, last.Fadeout)
		for _, a := range as[:len(as)-1] {
			assert.NotEmpty(t, a.Text)
			assert.True(t, a.Fadeout)
		}
	}
}

func TestAnnotate_FewerThanFivePeaks(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 1
	}
	values[3] = 10
	values[14] = 40
	s := dailySeries(t, "2021-01-01", values...)

	st, err := Build("South", s, nil, 1)
	require.NoError(t, err)

	all := strings.Join(texts(st.Annotations), "\n")
	assert.Contains(t, all, "By 15/01/2021, the number of cases reached 40.")
	assert.NotContains(t, all, "reached 10.")
	assert.NotContains(t, all, "peaks at")
}

func TestAnnotate_VeryHighTier(t *testing.T) {
	s := dailySeries(t, "2021-02-01", 200, 200, 200, 200)

	st, err := Build("East", s, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"On 01/02/2021, East recorded its first COVID-19 case.",
		"The number of cases remains very high. Let us be safe, and support the NHS.",
		"",
	}, texts(st.Annotations))
}

func TestAnnotate_EmptySegment(t *testing.T) {
	s := scenarioSeries(t)
	segs := []domain.Segment{{Index: 0, Count: 1, Start: 0, End: -1}}

	_, err := Annotate("X", s, segs)
	assert.Error(t, err)
}

func TestSequence_Placement(t *testing.T) {
	s := scenarioSeries(t)
	out, err := Sequence(nil, s)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsSentinel())
	assert.Equal(t, domain.PlacementRight, out[0].Placement)
	assert.Equal(t, 0, out[0].StartIndex)
}

func TestAnnotate_NoticeableTier(t *testing.T) {
	s := dailySeries(t, "2021-02-01", 60, 60, 60, 60)

	st, err := Build("West", s, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"On 01/02/2021, West recorded its first COVID-19 case.",
		"The number of cases remains noticeable. Let us be safe and support the NHS.",
		"",
	}, texts(st.Annotations))
}

func TestAnnotate_TrendTexts(t *testing.T) {
	flat := []float64{1, 1, 1, 1, 1}
	tests := []struct {
		name   string
		first  []float64
		last   []float64
		want   []string
		absent []string
	}{
		{
			name:  "first steep up",
			first: []float64{1, 2, 3, 4, 5},
			last:  flat,
			want: []string{
				"The number of cases continues to grow.",
				"By 05/02/2021, the number of cases continued to climb higher.",
			},
		},
		{
			name:  "first shallow up",
			first: []float64{10, 10.1, 10.2, 10.3, 10.4},
			last:  flat,
			want: []string{
				"The number of cases continues to grow.",
				"By 05/02/2021, the number of cases continued to increase.",
			},
		},
		{
			name:   "first shallow down",
			first:  []float64{10, 9.9, 9.8, 9.7, 9.6},
			last:   flat,
			want:   []string{"By 05/02/2021, the number of cases continued to decrease."},
			absent: []string{"continues to grow"},
		},
		{
			name:   "first steep down",
			first:  []float64{10, 9, 8, 7, 6},
			last:   flat,
			want:   []string{"By 05/02/2021, the number of cases continued to come down noticeably."},
			absent: []string{"continues to grow"},
		},
		{
			name:  "last steep up",
			first: flat,
			last:  []float64{1, 2, 3, 4, 5},
			want: []string{"By 10/02/2021, the number of cases continued to climb higher. " +
				"Let us all make a great effort to help bring the number down. Be safe, and support the NHS."},
		},
		{
			name:  "last shallow up",
			first: flat,
			last:  []float64{10, 10.1, 10.2, 10.3, 10.4},
			want: []string{"By 10/02/2021, the number of cases continued to increase. " +
				"Let us continue to help bring the number down. Be safe, and support the NHS."},
		},
		{
			name:  "last shallow down",
			first: flat,
			last:  []float64{10, 9.9, 9.8, 9.7, 9.6},
			want: []string{"By 10/02/2021, the number of cases continued to decrease. " +
				"The trend is encouraging. Let us be vigilant, and support the NHS."},
		},
		{
			name:  "last steep down",
			first: flat,
			last:  []float64{10, 9, 8, 7, 6},
			want: []string{"By 10/02/2021, the number of cases continued to come down noticeably. " +
				"We should continue to be vigilant."},
		},
		{
			name:   "flat first stays quiet",
			first:  flat,
			last:   []float64{30, 30, 30, 30, 30},
			want:   []string{"The number of cases remains low. We should continue to be vigilant."},
			absent: []string{"continues to grow", "By 05/02/2021"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := dailySeries(t, "2021-02-01", append(append([]float64{}, tt.first...), tt.last...)...)
			segs, err := Partition(nil, []domain.Boundary{{Index: 5}}, s)
			require.NoError(t, err)
			require.Len(t, segs, 2)

			as, err := Annotate("Leeds", s, segs)
			require.NoError(t, err)
			got := texts(as)

			assert.Contains(t, got, "On 01/02/2021, Leeds recorded its first COVID-19 case.")
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			all := strings.Join(got, "\n")
			for _, a := range tt.absent {
				assert.NotContains(t, all, a)
			}
		})
	}
}

func TestAnnotate_Passthrough(t *testing.T) {
	s := dailySeries(t, "2021-03-01",
		0, 0, 0, 0, 0,
		5, 12, 40, 30, 20,
		22, 24, 25, 24, 23)
	events := []domain.Event{
		domain.NewPeakEvent(s[7], 7).WithRank(5),
		domain.NewPeakEvent(s[12], 12).WithRank(4),
		domain.NewPeakEvent(s[6], 6).WithRank(2),
		domain.NewSemanticEvent(s[8].Date, domain.TypeLockdownStart, "Curfew begins."),
		domain.NewSemanticEvent(s[11].Date, domain.TypeLockdownEnd, "Curfew lifted."),
	}

	segs, err := Partition(events, []domain.Boundary{{Index: 5}, {Index: 10}}, s)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	require.Equal(t, domain.PositionMiddle, segs[1].Position)

	as, err := Annotate("York", s, segs)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"By 08/03/2021, the number of cases peaks at 40.",
		"Curfew begins.",
		"By 13/03/2021, the number of cases peaks at 25.",
		"By 15/03/2021, the number of cases continued to increase. " +
			"Let us continue to help bring the number down. Be safe, and support the NHS.",
		"",
	}, texts(as))
	assert.Equal(t, []int{7, 8, 12, 14, 14}, anchors(as))
	assert.Equal(t, []bool{true, true, true, false, false}, highlights(as))

	for _, a := range as {
		if a.AnchorIndex >= segs[1].Start && a.AnchorIndex <= segs[1].End {
			assert.True(t, a.Highlight, "middle annotations are passthrough only: %q", a.Text)
		}
	}
}

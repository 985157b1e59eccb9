package story

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

// dailySeries builds one point per day starting at start (YYYY-MM-DD).
func dailySeries(t *testing.T, start string, values ...float64) domain.Series {
	t.Helper()
	day, err := time.Parse(time.DateOnly, start)
	require.NoError(t, err)

	s := make(domain.Series, len(values))
	for i, v := range values {
		s[i] = domain.SeriesPoint{Date: day.AddDate(0, 0, i), Value: v}
	}
	return s
}

// scenarioSeries is ten days around the first lockdown, which falls on index 2.
func scenarioSeries(t *testing.T) domain.Series {
	t.Helper()
	return dailySeries(t, "2020-03-22", 0, 0, 5, 20, 15, 30, 25, 10, 5, 2)
}

func texts(annotations []domain.Annotation) []string {
	out := make([]string, len(annotations))
	for i, a := range annotations {
		out[i] = a.Text
	}
	return out
}

func anchors(annotations []domain.Annotation) []int {
	out := make([]int, len(annotations))
	for i, a := range annotations {
		out[i] = a.AnchorIndex
	}
	return out
}

func highlights(annotations []domain.Annotation) []bool {
	out := make([]bool, len(annotations))
	for i, a := range annotations {
		out[i] = a.Highlight
	}
	return out
}

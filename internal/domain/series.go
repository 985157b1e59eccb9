package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the display format used in annotation titles and texts.
const DateLayout = "02/01/2006"

// RawRow is one ingestion row as extracted from the tabular source.
type RawRow struct {
	Region string `json:"region" parquet:"area_name"`
	Date   string `json:"date" parquet:"date"`
	Count  string `json:"count" parquet:"count"`
}

// SeriesPoint is a single daily observation.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is a region's observations, strictly ascending by day.
type Series []SeriesPoint

// Values returns the observation values in date order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the final point. The series must not be empty.
func (s Series) Last() SeriesPoint {
	return s[len(s)-1]
}

// FindDateIndex returns the index of the point nearest to date. Ties resolve
// toward the earlier index. Returns -1 for an empty series.
func (s Series) FindDateIndex(date time.Time) int {
	if len(s) == 0 {
		return -1
	}
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(date) })
	if i == 0 {
		return 0
	}
	if i == len(s) {
		return len(s) - 1
	}
	before := date.Sub(s[i-1].Date)
	after := s[i].Date.Sub(date)
	if after < before {
		return i
	}
	return i - 1
}

// ParseRow converts a raw row into its region key and typed point.
func ParseRow(row RawRow) (string, SeriesPoint, error) {
	region := strings.TrimSpace(row.Region)
	if region == "" {
		return "", SeriesPoint{}, errors.New("missing region")
	}

	date, err := ParseDate(row.Date)
	if err != nil {
		return region, SeriesPoint{}, err
	}

	value, err := parseCount(row.Count)
	if err != nil {
		return region, SeriesPoint{}, err
	}

	return region, SeriesPoint{Date: date, Value: value}, nil
}

// ParseDate parses an ISO date or RFC 3339 timestamp and truncates it to the
// UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseCount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty count")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric count %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return v, nil
}

// BuildSeries groups rows by region and orders each region's points by date.
// Rows that cannot be parsed, and repeated dates after the first occurrence,
// are dropped and reported as RowErrors; they never abort the build.
func BuildSeries(rows []RawRow) (map[string]Series, []error) {
	type numbered struct {
		row   int
		point SeriesPoint
	}

	parsed := make(map[string][]numbered)
	var dropped []error

	for i, row := range rows {
		region, point, err := ParseRow(row)
		if err != nil {
			dropped = append(dropped, &RowError{Row: i + 1, Region: region, Err: err})
			continue
		}
		parsed[region] = append(parsed[region], numbered{row: i + 1, point: point})
	}

	byRegion := make(map[string]Series, len(parsed))
	for _, region := range sortedKeys(parsed) {
		points := parsed[region]
		sort.SliceStable(points, func(a, b int) bool { return points[a].point.Date.Before(points[b].point.Date) })

		series := make(Series, 0, len(points))
		for _, p := range points {
			if n := len(series); n > 0 && series[n-1].Date.Equal(p.point.Date) {
				dropped = append(dropped, &RowError{
					Row:    p.row,
					Region: region,
					Err:    fmt.Errorf("duplicate date %s", p.point.Date.Format(time.DateOnly)),
				})
				continue
			}
			series = append(series, p.point)
		}
		byRegion[region] = series
	}

	return byRegion, dropped
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedRegions returns the region keys in lexical order.
func SortedRegions(byRegion map[string]Series) []string {
	return sortedKeys(byRegion)
}

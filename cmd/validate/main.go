// Command validate performs end-to-end integrity checks across the mock data
// fixtures: the CSV export, its Parquet twin, and the stories JSON. It checks
// row parity, ingestion cleanliness, story invariants for every segment
// count, and that the stories fixture matches a fresh pipeline run.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/cases.csv \
//	  -parquet data/mock/cases.parquet \
//	  -stories data/mock/stories.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/case-story-service/internal/adapter/csvsource"
	"github.com/couchcryptid/case-story-service/internal/adapter/parquet"
	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/story"
)

// maxSegments is the largest segment count a reader can request.
const maxSegments = 5

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the CSV case fixture")
	parquetPath := flag.String("parquet", "", "path to the Parquet case fixture")
	storiesPath := flag.String("stories", "", "path to the stories JSON fixture")
	flag.Parse()

	if *csvPath == "" || *parquetPath == "" || *storiesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *parquetPath, *storiesPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, parquetPath, storiesPath string) int {
	ctx := context.Background()

	// ── Load all data sources ──
	fmt.Println("=== Case Story Integrity Validation ===")
	fmt.Println()

	csvRows, err := csvsource.New(csvPath, csvsource.Columns{}).ReadRows(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	parquetRows, err := parquet.NewSource(parquetPath).ReadRows(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load Parquet: %v\n", err)
		return 1
	}

	stories, err := loadJSON[domain.Story](storiesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load stories JSON: %v\n", err)
		return 1
	}

	byRegion, dropped := domain.BuildSeries(csvRows)

	// ── Run validation phases ──
	phases := []*phase{
		validateSourceParity(csvRows, parquetRows),
		validateIngestion(byRegion, dropped),
		validateStoryInvariants(byRegion),
		validateStoriesFixture(stories, byRegion),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := report(phases)

	fmt.Println()
	fmt.Printf("Records: %d CSV, %d Parquet, %d regions, %d stories\n",
		len(csvRows), len(parquetRows), len(byRegion), len(stories))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := color.GreenString("PASS")
		if !p.passed() {
			status = color.RedString("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	return allPassed
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Source Parity ──
// Validates that the Parquet fixture holds exactly the CSV rows.

func validateSourceParity(csvRows, parquetRows []domain.RawRow) *phase {
	p := &phase{name: "Phase 1: Source Parity (CSV vs Parquet)"}

	if len(csvRows) != len(parquetRows) {
		p.errorf("CSV has %d rows, Parquet has %d", len(csvRows), len(parquetRows))
		return p
	}
	for i := range csvRows {
		if csvRows[i] != parquetRows[i] {
			p.errorf("row %d: csv=%+v, parquet=%+v", i+1, csvRows[i], parquetRows[i])
		}
	}
	return p
}

// ── Phase 2: Ingestion ──
// Validates that every row is usable and each series is a gap-free daily run.

func validateIngestion(byRegion map[string]domain.Series, dropped []error) *phase {
	p := &phase{name: "Phase 2: Ingestion (rows to series)"}

	for _, err := range dropped {
		p.errorf("dropped: %v", err)
	}
	if len(byRegion) == 0 {
		p.errorf("no regions ingested")
	}

	for _, region := range domain.SortedRegions(byRegion) {
		series := byRegion[region]
		for i := 1; i < len(series); i++ {
			if gap := series[i].Date.Sub(series[i-1].Date); gap != 24*time.Hour {
				p.errorf("%s index %d: gap of %s after %s", region, i, gap, series[i-1].Date.Format(time.DateOnly))
			}
		}
	}
	return p
}

// ── Phase 3: Story Invariants ──
// Builds every region at every segment count and checks structural laws.

func validateStoryInvariants(byRegion map[string]domain.Series) *phase {
	p := &phase{name: "Phase 3: Story Invariants (k=1..5)"}
	catalog := domain.DefaultCatalog()

	for _, region := range domain.SortedRegions(byRegion) {
		series := byRegion[region]
		analysis := story.Analyze(series, catalog)

		for k := 1; k <= maxSegments; k++ {
			st, err := story.Tell(region, series, analysis, k)
			var warn *domain.DegradedSegmentationWarning
			switch {
			case errors.As(err, &warn):
				if !st.Degraded || warn.Achieved != len(st.Segments) {
					p.errorf("%s k=%d: inconsistent degraded result", region, k)
				}
			case err != nil:
				p.errorf("%s k=%d: %v", region, k, err)
				continue
			case len(st.Segments) != k:
				p.errorf("%s k=%d: got %d segments", region, k, len(st.Segments))
			}
			checkSegments(p, region, k, st)
			checkAnnotations(p, region, k, st)
		}
	}
	return p
}

func checkSegments(p *phase, region string, k int, st domain.Story) {
	ranges := st.SegmentRanges()
	if len(ranges) == 0 {
		p.errorf("%s k=%d: no segments", region, k)
		return
	}
	if ranges[0][0] != 0 {
		p.errorf("%s k=%d: first segment starts at %d", region, k, ranges[0][0])
	}
	if last := ranges[len(ranges)-1][1]; last != len(st.Series)-1 {
		p.errorf("%s k=%d: last segment ends at %d of %d", region, k, last, len(st.Series))
	}
	for i, r := range ranges {
		if r[1] < r[0] {
			p.errorf("%s k=%d: segment %d is empty", region, k, i)
		}
		if i > 0 && r[0] != ranges[i-1][1]+1 {
			p.errorf("%s k=%d: segment %d starts at %d, previous ends at %d", region, k, i, r[0], ranges[i-1][1])
		}
	}
}

func checkAnnotations(p *phase, region string, k int, st domain.Story) {
	as := st.Annotations
	if len(as) == 0 {
		p.errorf("%s k=%d: no annotations", region, k)
		return
	}

	last := as[len(as)-1]
	if !last.IsSentinel() || last.AnchorIndex != len(st.Series)-1 {
		p.errorf("%s k=%d: missing terminal sentinel", region, k)
	}
	for i, a := range as {
		if a.EndIndex != a.AnchorIndex {
			p.errorf("%s k=%d annotation %d: end %d != anchor %d", region, k, i, a.EndIndex, a.AnchorIndex)
		}
		if i == 0 {
			if a.StartIndex != 0 {
				p.errorf("%s k=%d: first annotation starts at %d", region, k, a.StartIndex)
			}
			continue
		}
		if a.AnchorIndex < as[i-1].AnchorIndex {
			p.errorf("%s k=%d annotation %d: anchors out of order", region, k, i)
		}
		if a.StartIndex != as[i-1].EndIndex {
			p.errorf("%s k=%d annotation %d: start %d != previous end %d", region, k, i, a.StartIndex, as[i-1].EndIndex)
		}
		if i < len(as)-1 && a.IsSentinel() {
			p.errorf("%s k=%d annotation %d: empty text before the sentinel", region, k, i)
		}
	}
}

// ── Phase 4: Stories Fixture ──
// Validates the stories JSON against a fresh pipeline run.

func validateStoriesFixture(stories []domain.Story, byRegion map[string]domain.Series) *phase {
	p := &phase{name: "Phase 4: Stories Fixture (JSON vs pipeline)"}

	if len(stories) != len(byRegion) {
		p.errorf("fixture has %d stories, data has %d regions", len(stories), len(byRegion))
	}

	catalog := domain.DefaultCatalog()
	for i := range stories {
		want := &stories[i]
		series, ok := byRegion[want.Region]
		if !ok {
			p.errorf("%s: region not in data", want.Region)
			continue
		}

		// Match the fixture's timestamp so only content is compared.
		domain.SetClock(clockwork.NewFakeClockAt(want.GeneratedAt))
		got, err := story.Build(want.Region, series, catalog, want.RequestedSegments)
		domain.SetClock(nil)

		var warn *domain.DegradedSegmentationWarning
		if err != nil && !errors.As(err, &warn) {
			p.errorf("%s: %v", want.Region, err)
			continue
		}
		if got.Degraded != want.Degraded {
			p.errorf("%s: degraded=%t, fixture=%t", want.Region, got.Degraded, want.Degraded)
		}
		if diff := cmp.Diff(want.SegmentRanges(), got.SegmentRanges()); diff != "" {
			p.errorf("%s: segment ranges differ (-fixture +pipeline):\n%s", want.Region, diff)
		}
		if diff := cmp.Diff(want.Annotations, got.Annotations); diff != "" {
			p.errorf("%s: annotations differ (-fixture +pipeline):\n%s", want.Region, diff)
		}
	}
	return p
}

// Command genmock generates deterministic synthetic case-count fixtures for
// the service and its test suites. It writes the same rows as a dashboard
// style CSV and as Parquet, then runs the real story pipeline over them so
// the stories fixture matches what the service would serve.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -segments 3
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/case-story-service/internal/adapter/csvsource"
	"github.com/couchcryptid/case-story-service/internal/adapter/parquet"
	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/story"
)

var (
	startDate   = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	generatedAt = time.Date(2021, time.November, 1, 6, 0, 0, 0, time.UTC)
)

// Fixture file names inside -out-dir.
const (
	csvFile     = "cases.csv"
	parquetFile = "cases.parquet"
	storiesFile = "stories.json"
)

// wave is one gaussian outbreak, positioned in days from startDate.
type wave struct {
	day    float64
	width  float64
	height float64
}

type regionDef struct {
	code  string
	name  string
	seed  uint64
	scale float64
	waves []wave
}

var regions = []regionDef{
	{code: "E08000035", name: "Leeds", seed: 35, scale: 1.0, waves: []wave{
		{day: 40, width: 18, height: 900}, {day: 250, width: 30, height: 2600}, {day: 310, width: 20, height: 3400}, {day: 520, width: 40, height: 4100},
	}},
	{code: "E06000014", name: "York", seed: 14, scale: 0.25, waves: []wave{
		{day: 45, width: 15, height: 700}, {day: 300, width: 25, height: 3000}, {day: 540, width: 35, height: 3800},
	}},
	{code: "E09000033", name: "Westminster", seed: 33, scale: 0.4, waves: []wave{
		{day: 30, width: 12, height: 1500}, {day: 290, width: 22, height: 4200}, {day: 470, width: 25, height: 2000},
	}},
	// Short series that cannot support five segments.
	{code: "E07000000", name: "Testshire", seed: 1, scale: 1.0},
}

// shortSeries backs regions without waves.
var shortSeries = []int{0, 0, 5, 20, 15, 30, 25, 10, 5, 2, 1, 0}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "output directory for fixtures")
	days := flag.Int("days", 610, "number of daily observations per region")
	segments := flag.Int("segments", 3, "segment count for the stories fixture")
	flag.Parse()

	if *outDir == "" || *days < 1 || *segments < 1 {
		flag.Usage()
		return fmt.Errorf("invalid flags: -out-dir must be set, -days and -segments must be positive")
	}

	rows := generateRows(*days)
	log.Printf("generated %d rows for %d regions", len(rows), len(regions))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	csvPath := filepath.Join(*outDir, csvFile)
	if err := writeCSV(csvPath, rows); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s", csvPath)

	parquetPath := filepath.Join(*outDir, parquetFile)
	if err := parquet.WriteRows(rows, parquetPath); err != nil {
		return fmt.Errorf("writing Parquet fixture: %w", err)
	}
	log.Printf("wrote Parquet fixture: %s", parquetPath)

	stories, err := buildStories(rows, *segments)
	if err != nil {
		return fmt.Errorf("building stories: %w", err)
	}
	storiesPath := filepath.Join(*outDir, storiesFile)
	if err := writeJSON(storiesPath, stories); err != nil {
		return fmt.Errorf("writing stories fixture: %w", err)
	}
	log.Printf("wrote stories fixture: %s", storiesPath)

	printStats(stories)
	return nil
}

// generateRows returns the same rows for the same day count on every call.
func generateRows(days int) []domain.RawRow {
	var rows []domain.RawRow
	for _, r := range regions {
		n := days
		if len(r.waves) == 0 {
			n = min(days, len(shortSeries))
		}
		rng := rand.New(rand.NewPCG(r.seed, uint64(days)))
		for i := range n {
			rows = append(rows, domain.RawRow{
				Region: r.name,
				Date:   startDate.AddDate(0, 0, i).Format(time.DateOnly),
				Count:  strconv.Itoa(caseCount(r, float64(i), rng)),
			})
		}
	}
	return rows
}

func caseCount(r regionDef, day float64, rng *rand.Rand) int {
	if len(r.waves) == 0 {
		return shortSeries[int(day)]
	}
	var v float64
	for _, w := range r.waves {
		d := (day - w.day) / w.width
		v += w.height * math.Exp(-d*d/2)
	}
	v *= r.scale
	v += v * 0.08 * (rng.Float64() - 0.5)
	return max(0, int(math.Round(v)))
}

func buildStories(rows []domain.RawRow, segments int) ([]domain.Story, error) {
	// Fixed clock for reproducible GeneratedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	byRegion, dropped := domain.BuildSeries(rows)
	if len(dropped) > 0 {
		return nil, fmt.Errorf("generated %d unusable rows: %w", len(dropped), dropped[0])
	}

	catalog := domain.DefaultCatalog()
	stories := make([]domain.Story, 0, len(byRegion))
	for _, region := range domain.SortedRegions(byRegion) {
		st, err := story.Build(region, byRegion[region], catalog, segments)
		var warn *domain.DegradedSegmentationWarning
		if err != nil && !errors.As(err, &warn) {
			return nil, fmt.Errorf("%s: %w", region, err)
		}
		stories = append(stories, st)
	}
	return stories, nil
}

func writeCSV(path string, rows []domain.RawRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	codes := make(map[string]string, len(regions))
	for _, r := range regions {
		codes[r.name] = r.code
	}

	w := csv.NewWriter(f)
	cols := csvsource.DefaultColumns
	if err := w.Write([]string{"areaCode", cols.Region, "areaType", cols.Date, cols.Count}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{codes[row.Region], row.Region, "ltla", row.Date, row.Count}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(stories []domain.Story) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Stories: %d\n", len(stories))
	for _, st := range stories {
		narrated := 0
		for _, a := range st.Annotations {
			if !a.IsSentinel() {
				narrated++
			}
		}
		fmt.Printf("  %-12s points=%d segments=%d degraded=%t annotations=%d ranges=%v\n",
			st.Region, len(st.Series), len(st.Segments), st.Degraded, narrated, st.SegmentRanges())
	}
}

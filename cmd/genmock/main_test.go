package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/adapter/csvsource"
	"github.com/couchcryptid/case-story-service/internal/adapter/parquet"
	"github.com/couchcryptid/case-story-service/internal/domain"
)

func TestGenerateRows_Deterministic(t *testing.T) {
	a := generateRows(90)
	b := generateRows(90)
	assert.Equal(t, a, b)

	byRegion, dropped := domain.BuildSeries(a)
	assert.Empty(t, dropped)
	assert.Len(t, byRegion, len(regions))
	assert.Len(t, byRegion["Leeds"], 90)
	assert.Len(t, byRegion["Testshire"], len(shortSeries))
}

func TestFixturesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := generateRows(60)

	csvPath := filepath.Join(dir, csvFile)
	require.NoError(t, writeCSV(csvPath, rows))
	fromCSV, err := csvsource.New(csvPath, csvsource.Columns{}).ReadRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, fromCSV)

	parquetPath := filepath.Join(dir, parquetFile)
	require.NoError(t, parquet.WriteRows(rows, parquetPath))
	fromParquet, err := parquet.NewSource(parquetPath).ReadRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, fromParquet)
}

func TestBuildStories(t *testing.T) {
	stories, err := buildStories(generateRows(120), 5)
	require.NoError(t, err)
	require.Len(t, stories, len(regions))

	for _, st := range stories {
		assert.Equal(t, generatedAt, st.GeneratedAt)
		assert.Equal(t, 5, st.RequestedSegments)
		last := st.Annotations[len(st.Annotations)-1]
		assert.True(t, last.IsSentinel(), st.Region)
		assert.Equal(t, len(st.Series)-1, last.AnchorIndex, st.Region)
	}

	path := filepath.Join(t.TempDir(), "nested", storiesFile)
	require.NoError(t, writeJSON(path, stories))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

const export = "\ufeffareaCode,areaName,areaType,date,newCasesByPublishDateRollingSum\n" +
	"E08000035,Leeds,ltla,2020-03-22,0\n" +
	"E08000035,Leeds,ltla,2020-03-23,4\n" +
	"E06000014,York,ltla,2020-03-22,1\n" +
	"E06000014,York\n"

func TestDecode_DefaultColumns(t *testing.T) {
	rows, err := Decode(context.Background(), strings.NewReader(export), DefaultColumns)
	require.NoError(t, err)

	assert.Equal(t, []domain.RawRow{
		{Region: "Leeds", Date: "2020-03-22", Count: "0"},
		{Region: "Leeds", Date: "2020-03-23", Count: "4"},
		{Region: "York", Date: "2020-03-22", Count: "1"},
		{Region: "York"},
	}, rows)
}

func TestDecode_CustomColumns(t *testing.T) {
	data := "region,day,cases\nHull,2021-01-01,12\n"

	rows, err := Decode(context.Background(), strings.NewReader(data), Columns{Region: "region", Date: "day", Count: "cases"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hull", rows[0].Region)
	assert.Equal(t, "12", rows[0].Count)
}

func TestDecode_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := Decode(context.Background(), strings.NewReader(""), DefaultColumns)
		assert.Error(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := Decode(context.Background(), strings.NewReader("areaName,date\nLeeds,2020-03-22\n"), DefaultColumns)
		assert.ErrorContains(t, err, "newCasesByPublishDateRollingSum")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Decode(ctx, strings.NewReader(export), DefaultColumns)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSource_ReadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	src := New(path, Columns{})
	assert.Equal(t, "csv:"+path, src.Name())

	rows, err := src.ReadRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = New(filepath.Join(t.TempDir(), "missing.csv"), Columns{}).ReadRows(context.Background())
	assert.Error(t, err)
}

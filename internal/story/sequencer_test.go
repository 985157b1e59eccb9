package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/case-story-service/internal/domain"
)

func TestSequencer(t *testing.T) {
	st, err := Build("Leeds", scenarioSeries(t), domain.DefaultCatalog(), 3)
	require.NoError(t, err)
	seq := NewSequencer(st.Annotations)
	require.Equal(t, 7, seq.Len())

	t.Run("starts at the beginning", func(t *testing.T) {
		assert.Equal(t, 0, seq.Cursor())
		cur, ok := seq.Current()
		require.True(t, ok)
		assert.Equal(t, "The number of cases continues to grow.", cur.Text)
	})

	t.Run("play and back", func(t *testing.T) {
		assert.Equal(t, 1, seq.Step(1))
		assert.Equal(t, 2, seq.Step(1))
		assert.Equal(t, 1, seq.Step(-1))
	})

	t.Run("cursor clamps", func(t *testing.T) {
		assert.Equal(t, 6, seq.Step(100))
		assert.Equal(t, 6, seq.Step(1))
		cur, _ := seq.Current()
		assert.True(t, cur.IsSentinel())
		assert.Equal(t, 0, seq.Step(-100))
		assert.Equal(t, 3, seq.Seek(3))
	})

	t.Run("reset", func(t *testing.T) {
		seq.Step(2)
		seq.Reset()
		assert.Equal(t, 0, seq.Cursor())
	})

	t.Run("position and visible", func(t *testing.T) {
		assert.Equal(t, 0, seq.Position(0))
		assert.Equal(t, 5, seq.Position(3))
		assert.Equal(t, 9, seq.Position(99))
		assert.Equal(t, 0, seq.Position(-1))

		assert.Len(t, seq.VisibleAt(0), 1)
		assert.Len(t, seq.VisibleAt(3), 4)
		assert.Len(t, seq.VisibleAt(42), 7)
	})
}

func TestSequencer_Empty(t *testing.T) {
	seq := NewSequencer(nil)

	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 0, seq.Step(1))
	assert.Equal(t, 0, seq.Position(2))
	assert.Nil(t, seq.VisibleAt(0))
	_, ok := seq.Current()
	assert.False(t, ok)
}

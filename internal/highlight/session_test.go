package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// tenWordTable builds words starting at 0, 340, 620, 1000, 1300, 1600,
// 2000, 2300, 2600, 3000 with each word running to just before the next
// start (the last to 3300), over 5000ms of audio.
func tenWordTable(t *testing.T) *timing.Table {
	t.Helper()

	starts := []int64{0, 340, 620, 1000, 1300, 1600, 2000, 2300, 2600, 3000}
	words := make([]timing.WordBoundary, len(starts))
	for i, s := range starts {
		end := s + 300
		if i < len(starts)-1 && end > starts[i+1] {
			end = starts[i+1]
		}
		words[i] = timing.WordBoundary{
			Word: "w", StartMs: s, EndMs: end, Index: i, CharOffset: i * 2, CharLength: 1,
		}
	}

	table, err := timing.NewTable("read-1", domain.ReadingGospel, words, 5000)
	require.NoError(t, err)
	return table
}

func TestSession_StartResetsCursor(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, timing.NoWord, s.CurrentIndex())
	assert.Nil(t, s.CurrentWord())
}

func TestSession_StartNilTable(t *testing.T) {
	s := NewSession()
	err := s.Start(nil)
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestSession_ApplyPositionDebounces(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	change, ok := s.ApplyPosition(0)
	require.True(t, ok)
	assert.Equal(t, 0, change.Index)

	// Identical index: no event, cursor unchanged.
	for _, pos := range []int64{50, 100, 250} {
		_, ok := s.ApplyPosition(pos)
		assert.False(t, ok, "position %d inside word 0 must not re-emit", pos)
	}
	assert.Equal(t, 0, s.CurrentIndex())

	change, ok = s.ApplyPosition(500)
	require.True(t, ok)
	assert.Equal(t, 1, change.Index)
}

func TestSession_PauseFreezesCursor(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	_, _ = s.ApplyPosition(500)
	require.Equal(t, 1, s.CurrentIndex())

	s.Pause()
	assert.Equal(t, PhasePaused, s.Phase())

	for _, pos := range []int64{1000, 2000, 3000} {
		_, ok := s.ApplyPosition(pos)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, s.CurrentIndex(), "paused cursor must not move")

	s.Resume()
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, 1, s.CurrentIndex(), "resume must not touch the cursor")
}

func TestSession_SeekSkipsIntermediateWords(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	_, _ = s.ApplyPosition(0)
	require.Equal(t, 0, s.CurrentIndex())

	change, ok := s.Seek(1700)
	require.True(t, ok)
	assert.Equal(t, 5, change.Index, "seek lands directly on the target word")

	// Seeking to a position resolving to the same index emits nothing.
	_, ok = s.Seek(1750)
	assert.False(t, ok)
}

func TestSession_SeekWhilePausedKeepsPhase(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))
	s.Pause()

	change, ok := s.Seek(2100)
	require.True(t, ok)
	assert.Equal(t, 6, change.Index)
	assert.Equal(t, PhasePaused, s.Phase())
}

func TestSession_MarkCompletedIdempotent(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	assert.True(t, s.MarkCompleted())
	assert.False(t, s.MarkCompleted(), "second completion must be a no-op")
	assert.Equal(t, PhaseCompleted, s.Phase())

	_, ok := s.ApplyPosition(100)
	assert.False(t, ok, "completed session drops position updates")
}

func TestSession_StopIsReusable(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))
	_, _ = s.ApplyPosition(1000)

	s.Stop()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, timing.NoWord, s.CurrentIndex())

	// Stop on an idle session is harmless.
	s.Stop()

	require.NoError(t, s.Start(tenWordTable(t)))
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, timing.NoWord, s.CurrentIndex())
}

func TestSession_MonotonicForwardPlay(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))

	prev := timing.NoWord
	for pos := int64(0); pos <= 5000; pos += 73 {
		if change, ok := s.ApplyPosition(pos); ok {
			assert.Greater(t, change.Index, prev,
				"emitted indices must be strictly increasing under forward play")
			prev = change.Index
		}
	}
	assert.Equal(t, 9, prev)
}

func TestSession_ErroredDropsEverything(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Start(tenWordTable(t)))
	s.MarkErrored()

	_, ok := s.ApplyPosition(500)
	assert.False(t, ok)
	_, ok = s.Seek(500)
	assert.False(t, ok)
	assert.Equal(t, timing.NoWord, s.CurrentIndex())
	assert.Equal(t, PhaseErrored, s.Phase())
}

package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/search"
	"github.com/lectioapp/lectio-server/internal/store"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

func setupReadingService(t *testing.T) (*ReadingService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reading-service-test-*")
	require.NoError(t, err)

	badgerStore, err := store.New(filepath.Join(tmpDir, "badger"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	idx, err := search.NewSearchIndex(search.Options{DataPath: tmpDir})
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	svc := NewReadingService(badgerStore, idx, store.NewNoopEmitter(), logger)

	cleanup := func() {
		badgerStore.Close()
		idx.Close()
		os.RemoveAll(tmpDir)
	}

	return svc, cleanup
}

func gospelReading(id string) *domain.Reading {
	return domain.NewReading(id, domain.ReadingGospel, "2026-08-30", "Jn 1:1-5",
		"In the beginning was the Word")
}

func TestCreateReading_Indexes(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))

	got, err := svc.GetReading(ctx, "read-1")
	require.NoError(t, err)
	assert.Equal(t, "Jn 1:1-5", got.Reference)

	params := search.DefaultSearchParams()
	params.Query = "beginning"
	result, err := svc.Search(ctx, params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "read-1", result.Hits[0].ID)
}

func TestCreateReading_Validation(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()

	bad := gospelReading("read-1")
	bad.Type = "sermon"
	assert.ErrorIs(t, svc.CreateReading(ctx, bad), errors.ErrValidation)

	empty := gospelReading("read-2")
	empty.Text = ""
	assert.ErrorIs(t, svc.CreateReading(ctx, empty), errors.ErrValidation)
}

func TestDeleteReading_RemovesFromIndex(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))
	require.NoError(t, svc.DeleteReading(ctx, "read-1"))

	_, err := svc.GetReading(ctx, "read-1")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	params := search.DefaultSearchParams()
	params.Query = "beginning"
	result, err := svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestCleanupOldReadings(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	old := domain.NewReading("read-old", domain.ReadingGospel, "2026-07-01", "Mt 5:1-12",
		"Blessed are the poor in spirit")
	recent := gospelReading("read-new")
	require.NoError(t, svc.CreateReading(ctx, old))
	require.NoError(t, svc.CreateReading(ctx, recent))

	deleted, err := svc.CleanupOldReadings(ctx, "2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = svc.GetReading(ctx, "read-old")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// The recent reading and its index entry survive.
	_, err = svc.GetReading(ctx, "read-new")
	require.NoError(t, err)

	params := search.DefaultSearchParams()
	params.Query = "Blessed"
	result, err := svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestCleanupOldReadings_RejectsBadCutoff(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	_, err := svc.CleanupOldReadings(context.Background(), "July 2026")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestLoadTimingTable(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))

	raw := &timingdata.RawTable{
		ReadingID:   "read-1",
		ReadingType: "gospel",
		DurationMs:  2000,
		Words: []timingdata.RawWord{
			{Word: "In", StartMs: 0, EndMs: 300, Index: 0, CharOffset: 0, CharLength: 2},
			{Word: "the", StartMs: 340, EndMs: 600, Index: 1, CharOffset: 3, CharLength: 3},
		},
	}
	require.NoError(t, svc.LoadTimingTable(ctx, raw))

	stored, err := svc.store.GetTimingTable(ctx, "read-1", domain.ReadingGospel)
	require.NoError(t, err)
	assert.Len(t, stored.Words, 2)

	// Duration was backfilled onto the reading.
	reading, err := svc.GetReading(ctx, "read-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), reading.DurationMs)
}

func TestLoadTimingTable_RejectsInvalid(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()

	overlapping := &timingdata.RawTable{
		ReadingID:   "read-1",
		ReadingType: "gospel",
		DurationMs:  2000,
		Words: []timingdata.RawWord{
			{Word: "In", StartMs: 0, EndMs: 500, Index: 0, CharOffset: 0, CharLength: 2},
			{Word: "the", StartMs: 400, EndMs: 600, Index: 1, CharOffset: 3, CharLength: 3},
		},
	}
	err := svc.LoadTimingTable(ctx, overlapping)
	assert.ErrorIs(t, err, errors.ErrInvalidTimingData)

	// Nothing was stored.
	_, err = svc.store.GetTimingTable(ctx, "read-1", domain.ReadingGospel)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLoadTimingTable_TextMismatch(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))

	mismatched := &timingdata.RawTable{
		ReadingID:   "read-1",
		ReadingType: "gospel",
		DurationMs:  2000,
		Words: []timingdata.RawWord{
			// Char span points at "In" but claims the word is "Word".
			{Word: "Word", StartMs: 0, EndMs: 300, Index: 0, CharOffset: 0, CharLength: 2},
		},
	}
	err := svc.LoadTimingTable(ctx, mismatched)
	assert.ErrorIs(t, err, errors.ErrInvalidTimingData)
}

func TestRebuildSearchIndex(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))
	psalm := domain.NewReading("read-2", domain.ReadingPsalm, "2026-08-30", "Ps 23:1-6",
		"The Lord is my shepherd")
	require.NoError(t, svc.CreateReading(ctx, psalm))

	count, err := svc.RebuildSearchIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetReadingsForDate(t *testing.T) {
	svc, cleanup := setupReadingService(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.CreateReading(ctx, gospelReading("read-1")))

	readings, err := svc.GetReadingsForDate(ctx, "2026-08-30")
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, domain.ReadingGospel, readings[0].Type)
}

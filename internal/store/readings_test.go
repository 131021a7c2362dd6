package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/id"
	"github.com/lectioapp/lectio-server/internal/sse"
)

func newTestReading(t *testing.T, rt domain.ReadingType, date string) *domain.Reading {
	t.Helper()

	readingID, err := id.Generate("read")
	require.NoError(t, err)

	reading := domain.NewReading(readingID, rt, date, "Jn 1:1-5", "In the beginning was the Word")
	reading.DurationMs = 5000
	return reading
}

func TestCreateReading(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reading := newTestReading(t, domain.ReadingGospel, "2026-08-30")

	require.NoError(t, store.CreateReading(ctx, reading))

	retrieved, err := store.GetReading(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, reading.Reference, retrieved.Reference)
	assert.Equal(t, reading.Text, retrieved.Text)
	assert.Equal(t, domain.ReadingGospel, retrieved.Type)
}

func TestCreateReading_AlreadyExists(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reading := newTestReading(t, domain.ReadingFirst, "2026-08-30")

	require.NoError(t, store.CreateReading(ctx, reading))
	assert.ErrorIs(t, store.CreateReading(ctx, reading), ErrReadingExists)
}

func TestGetReading_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetReading(context.Background(), "read-missing")
	assert.ErrorIs(t, err, ErrReadingNotFound)
}

func TestGetReadingByDate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	gospel := newTestReading(t, domain.ReadingGospel, "2026-08-30")
	psalm := newTestReading(t, domain.ReadingPsalm, "2026-08-30")

	require.NoError(t, store.CreateReading(ctx, gospel))
	require.NoError(t, store.CreateReading(ctx, psalm))

	retrieved, err := store.GetReadingByDate(ctx, "2026-08-30", domain.ReadingGospel)
	require.NoError(t, err)
	assert.Equal(t, gospel.ID, retrieved.ID)

	_, err = store.GetReadingByDate(ctx, "2026-08-30", domain.ReadingSecond)
	assert.ErrorIs(t, err, ErrReadingNotFound)
}

func TestUpdateReading_MovesDateIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reading := newTestReading(t, domain.ReadingFirst, "2026-08-30")
	require.NoError(t, store.CreateReading(ctx, reading))

	reading.Date = "2026-08-31"
	reading.Reference = "Is 55:1-3"
	require.NoError(t, store.UpdateReading(ctx, reading))

	// Old index entry is gone, new one resolves.
	_, err := store.GetReadingByDate(ctx, "2026-08-30", domain.ReadingFirst)
	assert.ErrorIs(t, err, ErrReadingNotFound)

	moved, err := store.GetReadingByDate(ctx, "2026-08-31", domain.ReadingFirst)
	require.NoError(t, err)
	assert.Equal(t, "Is 55:1-3", moved.Reference)
	assert.False(t, moved.UpdatedAt.Before(moved.CreatedAt))
}

func TestDeleteReading_CleansUp(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reading := newTestReading(t, domain.ReadingGospel, "2026-08-30")
	require.NoError(t, store.CreateReading(ctx, reading))

	progress := domain.NewHighlightProgress("client-1", reading.ID, reading.Type)
	require.NoError(t, store.SaveProgress(ctx, progress))

	require.NoError(t, store.DeleteReading(ctx, reading.ID))

	_, err := store.GetReading(ctx, reading.ID)
	assert.ErrorIs(t, err, ErrReadingNotFound)

	_, err = store.GetReadingByDate(ctx, "2026-08-30", domain.ReadingGospel)
	assert.ErrorIs(t, err, ErrReadingNotFound)

	_, err = store.GetProgress(ctx, "client-1", reading.ID)
	assert.ErrorIs(t, err, ErrProgressNotFound)
}

func TestListReadings_Pagination(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for range 5 {
		require.NoError(t, store.CreateReading(ctx, newTestReading(t, domain.ReadingFirst, "2026-08-30")))
	}

	page1, err := store.ListReadings(ctx, PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := store.ListReadings(ctx, PaginationParams{Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.True(t, page2.HasMore)

	page3, err := store.ListReadings(ctx, PaginationParams{Limit: 2, Cursor: page2.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.NextCursor)

	// No duplicates across pages.
	seen := make(map[string]bool)
	for _, page := range []*PaginatedResult[*domain.Reading]{page1, page2, page3} {
		for _, r := range page.Items {
			assert.False(t, seen[r.ID], "reading %s returned twice", r.ID)
			seen[r.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestListReadingsByDate_LiturgicalOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	// Create out of order; listing must come back first, psalm, gospel.
	gospel := newTestReading(t, domain.ReadingGospel, "2026-08-30")
	first := newTestReading(t, domain.ReadingFirst, "2026-08-30")
	psalm := newTestReading(t, domain.ReadingPsalm, "2026-08-30")
	for _, r := range []*domain.Reading{gospel, first, psalm} {
		require.NoError(t, store.CreateReading(ctx, r))
	}

	readings, err := store.ListReadingsByDate(ctx, "2026-08-30")
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, domain.ReadingFirst, readings[0].Type)
	assert.Equal(t, domain.ReadingPsalm, readings[1].Type)
	assert.Equal(t, domain.ReadingGospel, readings[2].Type)
}

func TestReadingIDsBefore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	old1 := newTestReading(t, domain.ReadingGospel, "2026-08-01")
	old2 := newTestReading(t, domain.ReadingPsalm, "2026-08-14")
	onCutoff := newTestReading(t, domain.ReadingGospel, "2026-08-15")
	recent := newTestReading(t, domain.ReadingGospel, "2026-08-30")
	for _, r := range []*domain.Reading{old1, old2, onCutoff, recent} {
		require.NoError(t, store.CreateReading(ctx, r))
	}

	ids, err := store.ReadingIDsBefore(ctx, "2026-08-15")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{old1.ID, old2.ID}, ids)

	// Cutoff is exclusive, a reading dated exactly on it stays.
	ids, err = store.ReadingIDsBefore(ctx, "2026-08-16")
	require.NoError(t, err)
	assert.Contains(t, ids, onCutoff.ID)

	ids, err = store.ReadingIDsBefore(ctx, "2026-08-01")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCreateReading_EmitsEvent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "lectio-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	emitter := &captureEmitter{}
	store, err := New(filepath.Join(tmpDir, "test.db"), nil, emitter)
	require.NoError(t, err)
	defer store.Close()

	reading := newTestReading(t, domain.ReadingGospel, "2026-08-30")
	require.NoError(t, store.CreateReading(context.Background(), reading))

	events := emitter.all()
	require.Len(t, events, 1)
	evt, ok := events[0].(sse.Event)
	require.True(t, ok)
	assert.Equal(t, sse.EventReadingCreated, evt.Type)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

func newTestRawTable(readingID string, rt domain.ReadingType) *timingdata.RawTable {
	return &timingdata.RawTable{
		ReadingID:   readingID,
		ReadingType: string(rt),
		DurationMs:  2000,
		Words: []timingdata.RawWord{
			{Word: "In", StartMs: 0, EndMs: 300, Index: 0, CharOffset: 0, CharLength: 2},
			{Word: "the", StartMs: 340, EndMs: 600, Index: 1, CharOffset: 3, CharLength: 3},
		},
	}
}

func TestPutGetTimingTable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	raw := newTestRawTable("read-1", domain.ReadingGospel)

	require.NoError(t, store.PutTimingTable(ctx, raw))

	retrieved, err := store.GetTimingTable(ctx, "read-1", domain.ReadingGospel)
	require.NoError(t, err)
	assert.Equal(t, raw.ReadingID, retrieved.ReadingID)
	assert.Equal(t, raw.DurationMs, retrieved.DurationMs)
	require.Len(t, retrieved.Words, 2)
	assert.Equal(t, "the", retrieved.Words[1].Word)
}

func TestGetTimingTable_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetTimingTable(context.Background(), "read-missing", domain.ReadingGospel)
	assert.ErrorIs(t, err, ErrTimingNotFound)
}

func TestTimingTable_KeyedByType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.PutTimingTable(ctx, newTestRawTable("read-1", domain.ReadingGospel)))

	// Same reading ID, different type, separate table.
	_, err := store.GetTimingTable(ctx, "read-1", domain.ReadingPsalm)
	assert.ErrorIs(t, err, ErrTimingNotFound)
}

func TestDeleteTimingTable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.PutTimingTable(ctx, newTestRawTable("read-1", domain.ReadingGospel)))

	require.NoError(t, store.DeleteTimingTable(ctx, "read-1", domain.ReadingGospel))

	has, err := store.HasTimingTable(ctx, "read-1", domain.ReadingGospel)
	require.NoError(t, err)
	assert.False(t, has)

	// Deleting again is not an error.
	require.NoError(t, store.DeleteTimingTable(ctx, "read-1", domain.ReadingGospel))
}

func TestPutTimingTable_Nil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Error(t, store.PutTimingTable(context.Background(), nil))
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

// Timing table operations. Tables are stored raw; validation happens in
// timingdata when a table is loaded for playback, so a bad drop never
// poisons the reading it belongs to.

// PutTimingTable stores the raw timing table for one reading.
func (s *Store) PutTimingTable(ctx context.Context, raw *timingdata.RawTable) error {
	if raw == nil {
		return fmt.Errorf("put timing table: nil table")
	}

	key := buildKey(prefixTiming, raw.ReadingID+":"+raw.ReadingType)
	defer releaseKey(key)

	if err := s.set(key, raw); err != nil {
		return fmt.Errorf("put timing table: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("timing table stored",
			"reading_id", raw.ReadingID,
			"reading_type", raw.ReadingType,
			"words", len(raw.Words),
		)
	}
	return nil
}

// GetTimingTable retrieves the raw timing table for a reading. Together
// with GetReading this satisfies timingdata.Backend.
func (s *Store) GetTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) (*timingdata.RawTable, error) {
	key := buildKey(prefixTiming, readingID+":"+string(rt))
	defer releaseKey(key)

	var raw timingdata.RawTable
	err := s.get(key, &raw)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTimingNotFound
		}
		return nil, fmt.Errorf("get timing table: %w", err)
	}
	return &raw, nil
}

// DeleteTimingTable removes the timing table for a reading, if present.
func (s *Store) DeleteTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) error {
	key := buildKey(prefixTiming, readingID+":"+string(rt))
	defer releaseKey(key)

	if err := s.delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete timing table: %w", err)
	}
	return nil
}

// HasTimingTable reports whether a timing table exists for the reading.
func (s *Store) HasTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) (bool, error) {
	key := buildKey(prefixTiming, readingID+":"+string(rt))
	defer releaseKey(key)
	return s.exists(key)
}

package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/sse"
)

// ErrReadingExists is returned when creating a reading whose ID is taken.
var ErrReadingExists = errors.New("reading already exists")

// Reading Operations

// CreateReading creates a new reading and its date index entry.
func (s *Store) CreateReading(ctx context.Context, reading *domain.Reading) error {
	key := buildKey(prefixReading, reading.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check reading exists: %w", err)
	}
	if exists {
		return ErrReadingExists
	}

	// Use a transaction so the reading and its date index land atomically.
	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		dateKey := buildIndexKey(entityReadings, indexDate, reading.Date+":"+string(reading.Type))
		defer releaseKey(dateKey)
		return txn.Set(dateKey, []byte(reading.ID))
	})
	if err != nil {
		return fmt.Errorf("create reading: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "reading created",
			slog.String("id", reading.ID),
			slog.String("type", string(reading.Type)),
			slog.String("date", reading.Date),
			slog.String("reference", reading.Reference),
		)
	}

	s.emit(sse.NewReadingCreatedEvent(reading))
	return nil
}

// GetReading retrieves a reading by ID.
func (s *Store) GetReading(ctx context.Context, id string) (*domain.Reading, error) {
	key := buildKey(prefixReading, id)
	defer releaseKey(key)

	var reading domain.Reading
	err := s.get(key, &reading)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("get reading: %w", err)
	}
	return &reading, nil
}

// GetReadingByDate retrieves the reading of the given type for a liturgical
// date (YYYY-MM-DD).
func (s *Store) GetReadingByDate(ctx context.Context, date string, rt domain.ReadingType) (*domain.Reading, error) {
	dateKey := buildIndexKey(entityReadings, indexDate, date+":"+string(rt))
	defer releaseKey(dateKey)

	var readingID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dateKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			readingID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("get reading by date: %w", err)
	}
	return s.GetReading(ctx, readingID)
}

// UpdateReading updates an existing reading, moving its date index entry if
// the date or type changed.
func (s *Store) UpdateReading(ctx context.Context, reading *domain.Reading) error {
	key := buildKey(prefixReading, reading.ID)
	defer releaseKey(key)

	old, err := s.GetReading(ctx, reading.ID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		reading.Touch()
		data, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		if old.Date != reading.Date || old.Type != reading.Type {
			oldDateKey := buildIndexKey(entityReadings, indexDate, old.Date+":"+string(old.Type))
			defer releaseKey(oldDateKey)
			if err := txn.Delete(oldDateKey); err != nil {
				return err
			}

			newDateKey := buildIndexKey(entityReadings, indexDate, reading.Date+":"+string(reading.Type))
			defer releaseKey(newDateKey)
			if err := txn.Set(newDateKey, []byte(reading.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update reading: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("reading updated", "id", reading.ID, "reference", reading.Reference)
	}

	s.emit(sse.NewReadingUpdatedEvent(reading))
	return nil
}

// DeleteReading deletes a reading together with its date index, timing
// table, and progress checkpoints.
func (s *Store) DeleteReading(ctx context.Context, id string) error {
	reading, err := s.GetReading(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := buildKey(prefixReading, id)
		defer releaseKey(key)
		if err := txn.Delete(key); err != nil {
			return err
		}

		dateKey := buildIndexKey(entityReadings, indexDate, reading.Date+":"+string(reading.Type))
		defer releaseKey(dateKey)
		if err := txn.Delete(dateKey); err != nil {
			return err
		}

		timingKey := buildKey(prefixTiming, reading.TimingKey())
		defer releaseKey(timingKey)
		if err := txn.Delete(timingKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}

	// Progress checkpoints are keyed by client, so they need a prefix scan.
	if err := s.deleteProgressForReading(ctx, id); err != nil {
		return fmt.Errorf("delete progress for reading: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("reading deleted", "id", id)
	}

	s.emit(sse.NewReadingDeletedEvent(id, time.Now()))
	return nil
}

// ListReadings returns readings in key order with cursor pagination.
func (s *Store) ListReadings(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Reading], error) {
	params.Validate()

	var readings []*domain.Reading
	var hasMore bool

	prefix := []byte(prefixReading)

	startKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = params.Limit + 1 // One extra to detect more items.

		it := txn.NewIterator(opts)
		defer it.Close()

		if startKey != "" {
			it.Seek([]byte(startKey))
			// Skip the cursor key itself, it was returned on the prior page.
			if it.Valid() && string(it.Item().Key()) == startKey {
				it.Next()
			}
		} else {
			it.Seek(prefix)
		}

		count := 0
		for ; it.ValidForPrefix(prefix); it.Next() {
			if count == params.Limit {
				hasMore = true
				break
			}

			err := it.Item().Value(func(val []byte) error {
				var reading domain.Reading
				if err := json.Unmarshal(val, &reading); err != nil {
					return err
				}
				readings = append(readings, &reading)
				return nil
			})
			if err != nil {
				return err
			}

			count++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	result := &PaginatedResult[*domain.Reading]{
		Items:   readings,
		HasMore: hasMore,
	}
	if hasMore && len(readings) > 0 {
		result.NextCursor = EncodeCursor(prefixReading + readings[len(readings)-1].ID)
	}
	return result, nil
}

// ListReadingsByDate returns all readings for a liturgical date, in the
// canonical order first, psalm, second, gospel.
func (s *Store) ListReadingsByDate(ctx context.Context, date string) ([]*domain.Reading, error) {
	var readings []*domain.Reading
	for _, rt := range domain.ReadingTypes() {
		reading, err := s.GetReadingByDate(ctx, date, rt)
		if err != nil {
			if errors.Is(err, ErrReadingNotFound) {
				continue
			}
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// ListAllReadings returns every reading without pagination. Intended for
// search index rebuilds, use ListReadings for API responses.
func (s *Store) ListAllReadings(ctx context.Context) ([]*domain.Reading, error) {
	var readings []*domain.Reading

	prefix := []byte(prefixReading)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var reading domain.Reading
				if err := json.Unmarshal(val, &reading); err != nil {
					return err
				}
				readings = append(readings, &reading)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all readings: %w", err)
	}

	return readings, nil
}

// ReadingIDsBefore returns the IDs of readings dated strictly before the
// cutoff. It walks the date index, which sorts lexicographically because
// dates are stored as YYYY-MM-DD, so the scan stops at the first entry on
// or past the cutoff.
func (s *Store) ReadingIDsBefore(ctx context.Context, cutoff string) ([]string, error) {
	var ids []string

	prefix := buildIndexKey(entityReadings, indexDate, "")
	defer releaseKey(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Index entries are "{date}:{type}" after the prefix.
			rest := it.Item().Key()[len(prefix):]
			date, _, ok := strings.Cut(string(rest), ":")
			if !ok || date >= cutoff {
				break
			}

			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list readings before %s: %w", cutoff, err)
	}

	return ids, nil
}

package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/lectioapp/lectio-server/internal/domain"
)

// Progress checkpoints are keyed client-first so one client's checkpoints
// across readings sit together in the keyspace.

func progressKey(clientID, readingID string) []byte {
	return buildKey(prefixProgress, clientID+":"+readingID)
}

// SaveProgress upserts a highlight progress checkpoint.
func (s *Store) SaveProgress(ctx context.Context, progress *domain.HighlightProgress) error {
	if progress == nil || progress.ClientID == "" || progress.ReadingID == "" {
		return fmt.Errorf("save progress: missing client or reading ID")
	}

	key := progressKey(progress.ClientID, progress.ReadingID)
	defer releaseKey(key)

	if err := s.set(key, progress); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// GetProgress retrieves the checkpoint for one client on one reading.
func (s *Store) GetProgress(ctx context.Context, clientID, readingID string) (*domain.HighlightProgress, error) {
	key := progressKey(clientID, readingID)
	defer releaseKey(key)

	var progress domain.HighlightProgress
	err := s.get(key, &progress)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &progress, nil
}

// ListProgressForClient returns all checkpoints for a client.
func (s *Store) ListProgressForClient(ctx context.Context, clientID string) ([]*domain.HighlightProgress, error) {
	var checkpoints []*domain.HighlightProgress

	prefix := buildKey(prefixProgress, clientID+":")
	defer releaseKey(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var progress domain.HighlightProgress
				if err := json.Unmarshal(val, &progress); err != nil {
					return err
				}
				checkpoints = append(checkpoints, &progress)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	return checkpoints, nil
}

// DeleteProgress removes one checkpoint.
func (s *Store) DeleteProgress(ctx context.Context, clientID, readingID string) error {
	key := progressKey(clientID, readingID)
	defer releaseKey(key)

	if err := s.delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// deleteProgressForReading removes every client's checkpoint for a reading.
// Keys are client-first so this has to scan the whole progress prefix.
func (s *Store) deleteProgressForReading(ctx context.Context, readingID string) error {
	prefix := []byte(prefixProgress)

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if strings.HasSuffix(string(key), ":"+readingID) {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

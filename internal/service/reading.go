// Package service provides the business logic layer for readings,
// highlight sessions, and listening history.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/search"
	"github.com/lectioapp/lectio-server/internal/sse"
	"github.com/lectioapp/lectio-server/internal/store"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

// ReadingService orchestrates reading catalog operations and timing table
// ingestion. It implements watcher.Loader so dropped timing files flow
// through the same path as API uploads.
type ReadingService struct {
	store   *store.Store
	search  *search.SearchIndex
	emitter store.EventEmitter
	logger  *slog.Logger
}

// NewReadingService creates a new reading service.
func NewReadingService(st *store.Store, idx *search.SearchIndex, emitter store.EventEmitter, logger *slog.Logger) *ReadingService {
	return &ReadingService{
		store:   st,
		search:  idx,
		emitter: emitter,
		logger:  logger,
	}
}

// ListReadings returns a paginated list of readings.
func (s *ReadingService) ListReadings(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Reading], error) {
	return s.store.ListReadings(ctx, params)
}

// GetReading retrieves a single reading by ID.
func (s *ReadingService) GetReading(ctx context.Context, id string) (*domain.Reading, error) {
	return s.store.GetReading(ctx, id)
}

// GetReadingsForDate returns the readings of the day in liturgical order.
func (s *ReadingService) GetReadingsForDate(ctx context.Context, date string) ([]*domain.Reading, error) {
	return s.store.ListReadingsByDate(ctx, date)
}

// CreateReading validates and persists a new reading, then indexes it.
func (s *ReadingService) CreateReading(ctx context.Context, reading *domain.Reading) error {
	if !reading.Type.IsValid() {
		return errors.Validationf("unknown reading type %q", reading.Type)
	}
	if reading.Text == "" {
		return errors.Validation("reading text is required")
	}

	if err := s.store.CreateReading(ctx, reading); err != nil {
		return err
	}

	if err := s.search.IndexDocument(search.FromReading(reading)); err != nil {
		// The reading is persisted; a stale index is recoverable via
		// RebuildSearchIndex.
		s.logger.Warn("failed to index reading", "id", reading.ID, "error", err)
	}
	return nil
}

// UpdateReading persists changes to a reading and refreshes its index
// entry.
func (s *ReadingService) UpdateReading(ctx context.Context, reading *domain.Reading) error {
	if !reading.Type.IsValid() {
		return errors.Validationf("unknown reading type %q", reading.Type)
	}

	if err := s.store.UpdateReading(ctx, reading); err != nil {
		return err
	}

	if err := s.search.IndexDocument(search.FromReading(reading)); err != nil {
		s.logger.Warn("failed to reindex reading", "id", reading.ID, "error", err)
	}
	return nil
}

// DeleteReading removes a reading, its timing table, and its index entry.
func (s *ReadingService) DeleteReading(ctx context.Context, id string) error {
	if err := s.store.DeleteReading(ctx, id); err != nil {
		return err
	}

	if err := s.search.DeleteDocument(id); err != nil {
		s.logger.Warn("failed to remove reading from index", "id", id, "error", err)
	}
	return nil
}

// CleanupOldReadings deletes every reading dated strictly before the
// cutoff, cascading through timing tables, progress checkpoints, and index
// entries. It returns the number of readings removed.
func (s *ReadingService) CleanupOldReadings(ctx context.Context, cutoff string) (int, error) {
	if _, err := time.Parse("2006-01-02", cutoff); err != nil {
		return 0, errors.Validationf("invalid cutoff date %q, want YYYY-MM-DD", cutoff)
	}

	ids, err := s.store.ReadingIDsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if err := s.DeleteReading(ctx, id); err != nil {
			// Keep going; a partial sweep finishes on the next run.
			s.logger.Warn("failed to delete old reading", "id", id, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("cleaned up old readings", "deleted", deleted, "before", cutoff)
	}
	return deleted, nil
}

// LoadTimingTable validates and stores one raw timing table. This is the
// single ingestion path: the drop-directory watcher and the upload API
// both land here. The table is fully validated before it is stored so a
// broken drop never reaches a highlight session.
func (s *ReadingService) LoadTimingTable(ctx context.Context, raw *timingdata.RawTable) error {
	table, err := timingdata.BuildTable(raw)
	if err != nil {
		return err
	}

	// Cross-check against the reading text when the reading is already
	// present. Tables may legitimately arrive before their reading.
	reading, err := s.store.GetReading(ctx, raw.ReadingID)
	if err == nil && reading.Text != "" {
		if err := table.VerifyText(reading.Text); err != nil {
			return err
		}
	}

	if err := s.store.PutTimingTable(ctx, raw); err != nil {
		return err
	}

	// Backfill the audio duration if the reading doesn't know it yet.
	if reading != nil && reading.DurationMs == 0 && raw.DurationMs > 0 {
		reading.DurationMs = raw.DurationMs
		if err := s.store.UpdateReading(ctx, reading); err != nil {
			s.logger.Warn("failed to backfill reading duration",
				"reading_id", reading.ID, "error", err)
		}
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewTimingLoadedEvent(raw.ReadingID, raw.ReadingType, len(raw.Words)))
	}

	s.logger.Info("timing table loaded",
		"reading_id", raw.ReadingID,
		"reading_type", raw.ReadingType,
		"words", len(raw.Words),
	)
	return nil
}

// RebuildSearchIndex drops and repopulates the search index from the
// store.
func (s *ReadingService) RebuildSearchIndex(ctx context.Context) (int, error) {
	if err := s.search.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	readings, err := s.store.ListAllReadings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list readings: %w", err)
	}

	docs := make([]*search.SearchDocument, len(readings))
	for i, r := range readings {
		docs[i] = search.FromReading(r)
	}
	if err := s.search.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index readings: %w", err)
	}

	s.logger.Info("search index rebuilt", "documents", len(docs))
	return len(docs), nil
}

// Search executes a full-text search over readings.
func (s *ReadingService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.search.Search(ctx, params)
}

// SearchDocumentCount reports how many readings the search index holds.
func (s *ReadingService) SearchDocumentCount() (uint64, error) {
	return s.search.DocumentCount()
}

package timingdata

import (
	"context"
	"log/slog"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// Backend is the slice of the store this provider needs.
type Backend interface {
	GetTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) (*RawTable, error)
	GetReading(ctx context.Context, id string) (*domain.Reading, error)
}

// StoreProvider fetches raw tables from the store and turns them into
// validated runtime tables. It implements highlight.TableProvider.
type StoreProvider struct {
	backend Backend
	logger  *slog.Logger
}

// NewStoreProvider creates a provider over the given backend.
func NewStoreProvider(backend Backend, logger *slog.Logger) *StoreProvider {
	return &StoreProvider{backend: backend, logger: logger}
}

// FetchTimingTable loads, validates, and cross-checks the timing table for
// one reading. A missing table is TimingUnavailable; a present but broken
// one is InvalidTimingData. Both are fatal to highlighting only.
func (p *StoreProvider) FetchTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) (*timing.Table, error) {
	raw, err := p.backend.GetTimingTable(ctx, readingID, rt)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.TimingUnavailable("no timing table for reading").WithCause(err)
		}
		return nil, errors.TimingUnavailable("timing table fetch failed").WithCause(err)
	}

	table, err := BuildTable(raw)
	if err != nil {
		return nil, err
	}

	// Cross-check character spans against the stored reading text. A
	// reading that is missing or has no text yet skips the check; a
	// mismatch means the table was aligned against a different revision.
	reading, err := p.backend.GetReading(ctx, readingID)
	if err == nil && reading.Text != "" {
		if err := table.VerifyText(reading.Text); err != nil {
			return nil, err
		}
	} else if err != nil && !errors.Is(err, errors.ErrNotFound) {
		p.logger.Warn("skipping timing text cross-check",
			"reading_id", readingID, "error", err)
	}

	return table, nil
}

package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lectioapp/lectio-server/internal/domain"
)

func TestCreateAndGetListeningRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := domain.NewListeningRecord("lr-1", "client-1", "read-1", domain.ReadingGospel)

	if err := s.CreateListeningRecord(ctx, record); err != nil {
		t.Fatalf("CreateListeningRecord: %v", err)
	}

	got, err := s.GetListeningRecord(ctx, "lr-1")
	if err != nil {
		t.Fatalf("GetListeningRecord: %v", err)
	}

	if got.ID != record.ID {
		t.Errorf("ID: got %q, want %q", got.ID, record.ID)
	}
	if got.ClientID != record.ClientID {
		t.Errorf("ClientID: got %q, want %q", got.ClientID, record.ClientID)
	}
	if got.ReadingID != record.ReadingID {
		t.Errorf("ReadingID: got %q, want %q", got.ReadingID, record.ReadingID)
	}
	if got.ReadingType != domain.ReadingGospel {
		t.Errorf("ReadingType: got %q, want %q", got.ReadingType, domain.ReadingGospel)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt: got %v, want nil", got.FinishedAt)
	}
	if got.LastWordIdx != -1 {
		t.Errorf("LastWordIdx: got %d, want -1", got.LastWordIdx)
	}
	if !got.IsActive() {
		t.Error("expected new record to be active")
	}
}

func TestCreateListeningRecord_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := domain.NewListeningRecord("lr-1", "client-1", "read-1", domain.ReadingFirst)
	if err := s.CreateListeningRecord(ctx, record); err != nil {
		t.Fatalf("CreateListeningRecord: %v", err)
	}

	if err := s.CreateListeningRecord(ctx, record); !errors.Is(err, ErrRecordExists) {
		t.Errorf("expected ErrRecordExists, got %v", err)
	}
}

func TestGetListeningRecord_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetListeningRecord(context.Background(), "lr-missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFinishListeningRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := domain.NewListeningRecord("lr-1", "client-1", "read-1", domain.ReadingGospel)
	if err := s.CreateListeningRecord(ctx, record); err != nil {
		t.Fatalf("CreateListeningRecord: %v", err)
	}

	record.Finish(true, 5000, 9)
	if err := s.FinishListeningRecord(ctx, record); err != nil {
		t.Fatalf("FinishListeningRecord: %v", err)
	}

	got, err := s.GetListeningRecord(ctx, "lr-1")
	if err != nil {
		t.Fatalf("GetListeningRecord: %v", err)
	}
	if !got.Completed {
		t.Error("expected record to be completed")
	}
	if got.ListenTimeMs != 5000 {
		t.Errorf("ListenTimeMs: got %d, want 5000", got.ListenTimeMs)
	}
	if got.LastWordIdx != 9 {
		t.Errorf("LastWordIdx: got %d, want 9", got.LastWordIdx)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected FinishedAt to be set")
	}
	if got.IsActive() {
		t.Error("finished record must not be active")
	}
}

func TestGetListeningRecords_OrderedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"lr-1", "lr-2", "lr-3"} {
		record := domain.NewListeningRecord(id, "client-1", "read-1", domain.ReadingPsalm)
		record.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.CreateListeningRecord(ctx, record); err != nil {
			t.Fatalf("CreateListeningRecord %s: %v", id, err)
		}
	}
	// Another client's record must not leak into the listing.
	other := domain.NewListeningRecord("lr-other", "client-2", "read-1", domain.ReadingPsalm)
	if err := s.CreateListeningRecord(ctx, other); err != nil {
		t.Fatalf("CreateListeningRecord: %v", err)
	}

	records, err := s.GetListeningRecords(ctx, "client-1")
	if err != nil {
		t.Fatalf("GetListeningRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "lr-3" || records[2].ID != "lr-1" {
		t.Errorf("unexpected order: %s, %s, %s", records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestGetListeningStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	completed := domain.NewListeningRecord("lr-1", "client-1", "read-1", domain.ReadingGospel)
	completed.Finish(true, 5000, 9)
	abandoned := domain.NewListeningRecord("lr-2", "client-1", "read-2", domain.ReadingFirst)
	abandoned.Finish(false, 1200, 3)

	for _, record := range []*domain.ListeningRecord{completed, abandoned} {
		if err := s.CreateListeningRecord(ctx, record); err != nil {
			t.Fatalf("CreateListeningRecord: %v", err)
		}
	}

	stats, err := s.GetListeningStats(ctx, "client-1")
	if err != nil {
		t.Fatalf("GetListeningStats: %v", err)
	}
	if stats.TotalListens != 2 {
		t.Errorf("TotalListens: got %d, want 2", stats.TotalListens)
	}
	if stats.CompletedListens != 1 {
		t.Errorf("CompletedListens: got %d, want 1", stats.CompletedListens)
	}
	if stats.TotalListenMs != 6200 {
		t.Errorf("TotalListenMs: got %d, want 6200", stats.TotalListenMs)
	}

	empty, err := s.GetListeningStats(ctx, "client-unknown")
	if err != nil {
		t.Fatalf("GetListeningStats: %v", err)
	}
	if empty.TotalListens != 0 || empty.TotalListenMs != 0 {
		t.Errorf("expected zero stats, got %+v", empty)
	}
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

func (s *Server) registerTimingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "uploadTiming",
		Method:      http.MethodPut,
		Path:        "/api/v1/readings/{id}/timing",
		Summary:     "Upload timing table",
		Description: "Validates and stores a word timing table for a reading",
		Tags:        []string{"Timing"},
	}, s.handleUploadTiming)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTiming",
		Method:      http.MethodGet,
		Path:        "/api/v1/readings/{id}/timing/{type}",
		Summary:     "Get timing table",
		Description: "Returns the stored word timing table for a reading",
		Tags:        []string{"Timing"},
	}, s.handleGetTiming)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTiming",
		Method:      http.MethodDelete,
		Path:        "/api/v1/readings/{id}/timing/{type}",
		Summary:     "Delete timing table",
		Description: "Removes the stored word timing table for a reading",
		Tags:        []string{"Timing"},
	}, s.handleDeleteTiming)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildSearchIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/search/rebuild",
		Summary:     "Rebuild search index",
		Description: "Drops and rebuilds the full-text index from stored readings",
		Tags:        []string{"Admin"},
	}, s.handleRebuildSearchIndex)

	huma.Register(s.api, huma.Operation{
		OperationID: "cleanupReadings",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/readings/cleanup",
		Summary:     "Delete old readings",
		Description: "Deletes readings dated before the cutoff, together with their timing tables and progress",
		Tags:        []string{"Admin"},
	}, s.handleCleanupReadings)
}

// === DTOs ===

type UploadTimingInput struct {
	ID   string `path:"id" doc:"Reading ID"`
	Body timingdata.RawTable
}

type UploadTimingResponse struct {
	ReadingID   string `json:"reading_id" doc:"Reading the table belongs to"`
	ReadingType string `json:"reading_type" doc:"Reading type"`
	WordCount   int    `json:"word_count" doc:"Number of word boundaries stored"`
	DurationMs  int64  `json:"duration_ms" doc:"Narration duration in milliseconds"`
}

type UploadTimingOutput struct {
	Body UploadTimingResponse
}

type GetTimingInput struct {
	ID   string `path:"id" doc:"Reading ID"`
	Type string `path:"type" doc:"Reading type: first, psalm, second, or gospel"`
}

type TimingOutput struct {
	Body timingdata.RawTable
}

type RebuildSearchIndexResponse struct {
	Indexed int `json:"indexed" doc:"Number of readings indexed"`
}

type RebuildSearchIndexOutput struct {
	Body RebuildSearchIndexResponse
}

type CleanupReadingsInput struct {
	Body struct {
		Before string `json:"before" doc:"Cutoff date (YYYY-MM-DD); readings dated before this are deleted"`
	}
}

type CleanupReadingsResponse struct {
	Deleted int    `json:"deleted" doc:"Number of readings removed"`
	Before  string `json:"before" doc:"Cutoff date applied"`
}

type CleanupReadingsOutput struct {
	Body CleanupReadingsResponse
}

// === Handlers ===

func (s *Server) handleUploadTiming(ctx context.Context, input *UploadTimingInput) (*UploadTimingOutput, error) {
	raw := input.Body
	if raw.ReadingID == "" {
		raw.ReadingID = input.ID
	}
	if raw.ReadingID != input.ID {
		return nil, errors.Validationf("timing table reading_id %q does not match path %q", raw.ReadingID, input.ID)
	}

	if err := s.services.Reading.LoadTimingTable(ctx, &raw); err != nil {
		return nil, err
	}

	return &UploadTimingOutput{Body: UploadTimingResponse{
		ReadingID:   raw.ReadingID,
		ReadingType: raw.ReadingType,
		WordCount:   len(raw.Words),
		DurationMs:  raw.DurationMs,
	}}, nil
}

func (s *Server) handleGetTiming(ctx context.Context, input *GetTimingInput) (*TimingOutput, error) {
	rt := domain.ReadingType(input.Type)
	if !rt.IsValid() {
		return nil, errors.Validationf("unknown reading type %q", input.Type)
	}

	raw, err := s.store.GetTimingTable(ctx, input.ID, rt)
	if err != nil {
		return nil, err
	}

	return &TimingOutput{Body: *raw}, nil
}

func (s *Server) handleDeleteTiming(ctx context.Context, input *GetTimingInput) (*MessageOutput, error) {
	rt := domain.ReadingType(input.Type)
	if !rt.IsValid() {
		return nil, errors.Validationf("unknown reading type %q", input.Type)
	}

	if err := s.store.DeleteTimingTable(ctx, input.ID, rt); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Timing table deleted"}}, nil
}

func (s *Server) handleRebuildSearchIndex(ctx context.Context, _ *struct{}) (*RebuildSearchIndexOutput, error) {
	count, err := s.services.Reading.RebuildSearchIndex(ctx)
	if err != nil {
		return nil, err
	}

	return &RebuildSearchIndexOutput{Body: RebuildSearchIndexResponse{Indexed: count}}, nil
}

func (s *Server) handleCleanupReadings(ctx context.Context, input *CleanupReadingsInput) (*CleanupReadingsOutput, error) {
	deleted, err := s.services.Reading.CleanupOldReadings(ctx, input.Body.Before)
	if err != nil {
		return nil, err
	}

	return &CleanupReadingsOutput{Body: CleanupReadingsResponse{
		Deleted: deleted,
		Before:  input.Body.Before,
	}}, nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/id"
	"github.com/lectioapp/lectio-server/internal/store"
)

func (s *Server) registerReadingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReadings",
		Method:      http.MethodGet,
		Path:        "/api/v1/readings",
		Summary:     "List readings",
		Description: "Returns readings with cursor pagination",
		Tags:        []string{"Readings"},
	}, s.handleListReadings)

	huma.Register(s.api, huma.Operation{
		OperationID: "createReading",
		Method:      http.MethodPost,
		Path:        "/api/v1/readings",
		Summary:     "Create reading",
		Description: "Creates a new daily reading",
		Tags:        []string{"Readings"},
	}, s.handleCreateReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReading",
		Method:      http.MethodGet,
		Path:        "/api/v1/readings/{id}",
		Summary:     "Get reading",
		Description: "Returns a reading by ID",
		Tags:        []string{"Readings"},
	}, s.handleGetReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReading",
		Method:      http.MethodPatch,
		Path:        "/api/v1/readings/{id}",
		Summary:     "Update reading",
		Description: "Updates a reading's metadata",
		Tags:        []string{"Readings"},
	}, s.handleUpdateReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReading",
		Method:      http.MethodDelete,
		Path:        "/api/v1/readings/{id}",
		Summary:     "Delete reading",
		Description: "Deletes a reading and its timing table",
		Tags:        []string{"Readings"},
	}, s.handleDeleteReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReadingsForDate",
		Method:      http.MethodGet,
		Path:        "/api/v1/readings/date/{date}",
		Summary:     "Get readings for date",
		Description: "Returns the readings for one liturgical date, in liturgical order",
		Tags:        []string{"Readings"},
	}, s.handleGetReadingsForDate)
}

// === DTOs ===

type ReadingResponse struct {
	ID         string    `json:"id" doc:"Reading ID"`
	Type       string    `json:"type" doc:"Reading type: first, psalm, second, or gospel"`
	Date       string    `json:"date" doc:"Liturgical date (YYYY-MM-DD)"`
	Reference  string    `json:"reference" doc:"Scripture reference (e.g. Jn 1:1-5)"`
	Title      string    `json:"title,omitempty" doc:"Optional display title"`
	Text       string    `json:"text" doc:"Passage text"`
	AudioURL   string    `json:"audio_url,omitempty" doc:"Narration audio URL"`
	DurationMs int64     `json:"duration_ms" doc:"Narration duration in milliseconds"`
	HasTiming  bool      `json:"has_timing" doc:"Whether a word timing table is loaded"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

type ListReadingsInput struct {
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=1000" doc:"Items per page (default 100)"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

type ListReadingsResponse struct {
	Readings   []ReadingResponse `json:"readings" doc:"Page of readings"`
	NextCursor string            `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool              `json:"has_more" doc:"Whether more pages exist"`
}

type ListReadingsOutput struct {
	Body ListReadingsResponse
}

type CreateReadingRequest struct {
	Type      string `json:"type" validate:"required,oneof=first psalm second gospel" doc:"Reading type"`
	Date      string `json:"date" validate:"required,len=10" doc:"Liturgical date (YYYY-MM-DD)"`
	Reference string `json:"reference" validate:"required,min=1,max=200" doc:"Scripture reference"`
	Title     string `json:"title,omitempty" doc:"Optional display title"`
	Text      string `json:"text" validate:"required,min=1" doc:"Passage text"`
	AudioURL  string `json:"audio_url,omitempty" doc:"Narration audio URL"`
}

type CreateReadingInput struct {
	Body CreateReadingRequest
}

type ReadingOutput struct {
	Body ReadingResponse
}

type GetReadingInput struct {
	ID string `path:"id" doc:"Reading ID"`
}

type UpdateReadingRequest struct {
	Reference *string `json:"reference,omitempty" doc:"Scripture reference"`
	Title     *string `json:"title,omitempty" doc:"Display title"`
	AudioURL  *string `json:"audio_url,omitempty" doc:"Narration audio URL"`
	Date      *string `json:"date,omitempty" doc:"Liturgical date (YYYY-MM-DD)"`
}

type UpdateReadingInput struct {
	ID   string `path:"id" doc:"Reading ID"`
	Body UpdateReadingRequest
}

type DeleteReadingInput struct {
	ID string `path:"id" doc:"Reading ID"`
}

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

type GetReadingsForDateInput struct {
	Date string `path:"date" doc:"Liturgical date (YYYY-MM-DD)"`
}

type ReadingsForDateResponse struct {
	Date     string            `json:"date" doc:"Liturgical date"`
	Readings []ReadingResponse `json:"readings" doc:"Readings in liturgical order"`
}

type ReadingsForDateOutput struct {
	Body ReadingsForDateResponse
}

// === Handlers ===

func (s *Server) handleListReadings(ctx context.Context, input *ListReadingsInput) (*ListReadingsOutput, error) {
	params := store.DefaultPaginationParams()
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Cursor = input.Cursor

	result, err := s.services.Reading.ListReadings(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := make([]ReadingResponse, len(result.Items))
	for i, r := range result.Items {
		resp[i] = s.mapReadingResponse(ctx, r)
	}

	return &ListReadingsOutput{Body: ListReadingsResponse{
		Readings:   resp,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}}, nil
}

func (s *Server) handleCreateReading(ctx context.Context, input *CreateReadingInput) (*ReadingOutput, error) {
	readingID, err := id.Generate("read")
	if err != nil {
		return nil, err
	}
	reading := domain.NewReading(
		readingID,
		domain.ReadingType(input.Body.Type),
		input.Body.Date,
		input.Body.Reference,
		input.Body.Text,
	)
	reading.Title = input.Body.Title
	reading.AudioURL = input.Body.AudioURL

	if err := s.services.Reading.CreateReading(ctx, reading); err != nil {
		return nil, err
	}

	return &ReadingOutput{Body: s.mapReadingResponse(ctx, reading)}, nil
}

func (s *Server) handleGetReading(ctx context.Context, input *GetReadingInput) (*ReadingOutput, error) {
	reading, err := s.services.Reading.GetReading(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReadingOutput{Body: s.mapReadingResponse(ctx, reading)}, nil
}

func (s *Server) handleUpdateReading(ctx context.Context, input *UpdateReadingInput) (*ReadingOutput, error) {
	reading, err := s.services.Reading.GetReading(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Body.Reference != nil {
		reading.Reference = *input.Body.Reference
	}
	if input.Body.Title != nil {
		reading.Title = *input.Body.Title
	}
	if input.Body.AudioURL != nil {
		reading.AudioURL = *input.Body.AudioURL
	}
	if input.Body.Date != nil {
		reading.Date = *input.Body.Date
	}

	if err := s.services.Reading.UpdateReading(ctx, reading); err != nil {
		return nil, err
	}

	return &ReadingOutput{Body: s.mapReadingResponse(ctx, reading)}, nil
}

func (s *Server) handleDeleteReading(ctx context.Context, input *DeleteReadingInput) (*MessageOutput, error) {
	if err := s.services.Reading.DeleteReading(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Reading deleted"}}, nil
}

func (s *Server) handleGetReadingsForDate(ctx context.Context, input *GetReadingsForDateInput) (*ReadingsForDateOutput, error) {
	readings, err := s.services.Reading.GetReadingsForDate(ctx, input.Date)
	if err != nil {
		return nil, err
	}

	resp := make([]ReadingResponse, len(readings))
	for i, r := range readings {
		resp[i] = s.mapReadingResponse(ctx, r)
	}

	return &ReadingsForDateOutput{Body: ReadingsForDateResponse{
		Date:     input.Date,
		Readings: resp,
	}}, nil
}

func (s *Server) mapReadingResponse(ctx context.Context, r *domain.Reading) ReadingResponse {
	hasTiming := false
	if s.store != nil {
		if ok, err := s.store.HasTimingTable(ctx, r.ID, r.Type); err == nil {
			hasTiming = ok
		}
	}

	return ReadingResponse{
		ID:         r.ID,
		Type:       string(r.Type),
		Date:       r.Date,
		Reference:  r.Reference,
		Title:      r.Title,
		Text:       r.Text,
		AudioURL:   r.AudioURL,
		DurationMs: r.DurationMs,
		HasTiming:  hasTiming,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

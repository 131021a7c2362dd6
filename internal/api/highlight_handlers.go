package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/playback"
	"github.com/lectioapp/lectio-server/internal/service"
	"github.com/lectioapp/lectio-server/internal/timing"
)

func (s *Server) registerHighlightRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startHighlightSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlight/sessions",
		Summary:     "Start highlight session",
		Description: "Starts a live word-highlight session for one client and reading",
		Tags:        []string{"Highlight"},
	}, s.handleStartSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHighlightSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/highlight/sessions/{id}",
		Summary:     "Get highlight session",
		Description: "Returns the current state of a live session",
		Tags:        []string{"Highlight"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "pushPosition",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlight/sessions/{id}/position",
		Summary:     "Push playback position",
		Description: "Feeds one playback position sample into a session",
		Tags:        []string{"Highlight"},
	}, s.handlePushPosition)

	huma.Register(s.api, huma.Operation{
		OperationID: "pauseHighlightSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlight/sessions/{id}/pause",
		Summary:     "Pause highlight session",
		Description: "Freezes the highlight cursor in place",
		Tags:        []string{"Highlight"},
	}, s.handlePauseSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "resumeHighlightSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlight/sessions/{id}/resume",
		Summary:     "Resume highlight session",
		Description: "Resumes a paused session",
		Tags:        []string{"Highlight"},
	}, s.handleResumeSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "seekHighlightSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlight/sessions/{id}/seek",
		Summary:     "Seek highlight session",
		Description: "Repositions the highlight cursor without replaying intermediate words",
		Tags:        []string{"Highlight"},
	}, s.handleSeekSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopHighlightSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/highlight/sessions/{id}",
		Summary:     "Stop highlight session",
		Description: "Stops a session and closes its listening record",
		Tags:        []string{"Highlight"},
	}, s.handleStopSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClientProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/{clientID}/progress",
		Summary:     "Get client progress",
		Description: "Returns all highlight checkpoints for one client",
		Tags:        []string{"Clients"},
	}, s.handleGetClientProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReadingProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/{clientID}/progress/{readingID}",
		Summary:     "Get reading progress",
		Description: "Returns one client's checkpoint on one reading",
		Tags:        []string{"Clients"},
	}, s.handleGetReadingProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListeningHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/clients/{clientID}/history",
		Summary:     "Get listening history",
		Description: "Returns a client's past listens with aggregate stats",
		Tags:        []string{"Clients"},
	}, s.handleGetListeningHistory)
}

// === DTOs ===

type StartSessionRequest struct {
	ClientID    string `json:"client_id" validate:"required,min=1,max=100" doc:"Stable client identifier"`
	ReadingID   string `json:"reading_id" validate:"required" doc:"Reading to highlight"`
	ReadingType string `json:"reading_type" validate:"required,oneof=first psalm second gospel" doc:"Reading type"`
	ToleranceMs int64  `json:"tolerance_ms,omitempty" validate:"omitempty,gte=0,lte=1000" doc:"Pre-light tolerance in ms (default 150)"`
}

type StartSessionInput struct {
	Body StartSessionRequest
}

type SessionResponse struct {
	ID               string               `json:"id" doc:"Session ID"`
	ClientID         string               `json:"client_id" doc:"Owning client"`
	ReadingID        string               `json:"reading_id" doc:"Reading being highlighted"`
	ReadingType      string               `json:"reading_type" doc:"Reading type"`
	State            string               `json:"state" doc:"Session state: idle, loading, active, paused, completed, or errored"`
	CurrentWordIndex int                  `json:"current_word_index" doc:"Index of the lit word, -1 if none"`
	CurrentWord      *timing.WordBoundary `json:"current_word,omitempty" doc:"The lit word boundary"`
}

type SessionOutput struct {
	Body SessionResponse
}

type GetSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type PushPositionRequest struct {
	PositionMs int64 `json:"position_ms" validate:"gte=0" doc:"Playback position in ms"`
	Playing    bool  `json:"playing,omitempty" doc:"Whether audio is playing"`
	Finished   bool  `json:"finished,omitempty" doc:"Whether audio reached end-of-stream"`
}

type PushPositionInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body PushPositionRequest
}

type SeekSessionRequest struct {
	PositionMs int64 `json:"position_ms" validate:"gte=0" doc:"Position to seek to in ms"`
}

type SeekSessionInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body SeekSessionRequest
}

type ClientPathInput struct {
	ClientID string `path:"clientID" doc:"Client ID"`
}

type ReadingProgressInput struct {
	ClientID  string `path:"clientID" doc:"Client ID"`
	ReadingID string `path:"readingID" doc:"Reading ID"`
}

type ProgressResponse struct {
	ClientID   string    `json:"client_id" doc:"Client ID"`
	ReadingID  string    `json:"reading_id" doc:"Reading ID"`
	Type       string    `json:"type" doc:"Reading type"`
	PositionMs int64     `json:"position_ms" doc:"Last playback position in ms"`
	WordIndex  int       `json:"word_index" doc:"Last lit word index, -1 if none"`
	Completed  bool      `json:"completed" doc:"Whether the reading was finished"`
	UpdatedAt  time.Time `json:"updated_at" doc:"When the checkpoint was written"`
}

type ClientProgressResponse struct {
	Progress []ProgressResponse `json:"progress" doc:"Checkpoints for the client"`
}

type ClientProgressOutput struct {
	Body ClientProgressResponse
}

type ProgressOutput struct {
	Body ProgressResponse
}

type ListeningRecordResponse struct {
	ID           string     `json:"id" doc:"Record ID"`
	ReadingID    string     `json:"reading_id" doc:"Reading listened to"`
	ReadingType  string     `json:"reading_type" doc:"Reading type"`
	StartedAt    time.Time  `json:"started_at" doc:"When the listen started"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" doc:"When the listen ended"`
	Completed    bool       `json:"completed" doc:"Whether the reading was heard to the end"`
	ListenTimeMs int64      `json:"listen_time_ms" doc:"Time spent listening in ms"`
	LastWordIdx  int        `json:"last_word_index" doc:"Last word lit during the listen"`
}

type ListeningHistoryResponse struct {
	Records          []ListeningRecordResponse `json:"records" doc:"Past listens, newest first"`
	TotalListens     int                       `json:"total_listens" doc:"Number of listens"`
	CompletedListens int                       `json:"completed_listens" doc:"Number of completed listens"`
	TotalListenMs    int64                     `json:"total_listen_ms" doc:"Total listening time in ms"`
}

type ListeningHistoryOutput struct {
	Body ListeningHistoryResponse
}

// === Handlers ===

func (s *Server) handleStartSession(ctx context.Context, input *StartSessionInput) (*SessionOutput, error) {
	info, err := s.services.Highlight.StartSession(
		ctx,
		input.Body.ClientID,
		input.Body.ReadingID,
		domain.ReadingType(input.Body.ReadingType),
		input.Body.ToleranceMs,
	)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handleGetSession(_ context.Context, input *GetSessionInput) (*SessionOutput, error) {
	info, err := s.services.Highlight.GetSession(input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handlePushPosition(_ context.Context, input *PushPositionInput) (*SessionOutput, error) {
	sample := playback.Sample{
		PositionMs: input.Body.PositionMs,
		Playing:    input.Body.Playing,
		Finished:   input.Body.Finished,
	}

	if err := s.services.Highlight.PushSample(input.ID, sample); err != nil {
		return nil, err
	}

	info, err := s.services.Highlight.GetSession(input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handlePauseSession(_ context.Context, input *GetSessionInput) (*SessionOutput, error) {
	if err := s.services.Highlight.Pause(input.ID); err != nil {
		return nil, err
	}

	info, err := s.services.Highlight.GetSession(input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handleResumeSession(_ context.Context, input *GetSessionInput) (*SessionOutput, error) {
	if err := s.services.Highlight.Resume(input.ID); err != nil {
		return nil, err
	}

	info, err := s.services.Highlight.GetSession(input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handleSeekSession(_ context.Context, input *SeekSessionInput) (*SessionOutput, error) {
	if err := s.services.Highlight.Seek(input.ID, input.Body.PositionMs); err != nil {
		return nil, err
	}

	info, err := s.services.Highlight.GetSession(input.ID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(info)}, nil
}

func (s *Server) handleStopSession(ctx context.Context, input *GetSessionInput) (*MessageOutput, error) {
	if err := s.services.Highlight.StopSession(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Session stopped"}}, nil
}

func (s *Server) handleGetClientProgress(ctx context.Context, input *ClientPathInput) (*ClientProgressOutput, error) {
	checkpoints, err := s.services.Highlight.ProgressForClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	resp := make([]ProgressResponse, len(checkpoints))
	for i, p := range checkpoints {
		resp[i] = mapProgressResponse(p)
	}

	return &ClientProgressOutput{Body: ClientProgressResponse{Progress: resp}}, nil
}

func (s *Server) handleGetReadingProgress(ctx context.Context, input *ReadingProgressInput) (*ProgressOutput, error) {
	progress, err := s.services.Highlight.ProgressForReading(ctx, input.ClientID, input.ReadingID)
	if err != nil {
		return nil, err
	}

	return &ProgressOutput{Body: mapProgressResponse(progress)}, nil
}

func (s *Server) handleGetListeningHistory(ctx context.Context, input *ClientPathInput) (*ListeningHistoryOutput, error) {
	records, err := s.services.Highlight.ListeningHistory(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Highlight.ListeningStats(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	resp := make([]ListeningRecordResponse, len(records))
	for i, r := range records {
		resp[i] = ListeningRecordResponse{
			ID:           r.ID,
			ReadingID:    r.ReadingID,
			ReadingType:  string(r.ReadingType),
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
			Completed:    r.Completed,
			ListenTimeMs: r.ListenTimeMs,
			LastWordIdx:  r.LastWordIdx,
		}
	}

	return &ListeningHistoryOutput{Body: ListeningHistoryResponse{
		Records:          resp,
		TotalListens:     stats.TotalListens,
		CompletedListens: stats.CompletedListens,
		TotalListenMs:    stats.TotalListenMs,
	}}, nil
}

func mapSessionResponse(info *service.SessionInfo) SessionResponse {
	return SessionResponse{
		ID:               info.ID,
		ClientID:         info.ClientID,
		ReadingID:        info.ReadingID,
		ReadingType:      string(info.ReadingType),
		State:            info.State,
		CurrentWordIndex: info.CurrentWordIndex,
		CurrentWord:      info.CurrentWord,
	}
}

func mapProgressResponse(p *domain.HighlightProgress) ProgressResponse {
	return ProgressResponse{
		ClientID:   p.ClientID,
		ReadingID:  p.ReadingID,
		Type:       string(p.Type),
		PositionMs: p.PositionMs,
		WordIndex:  p.WordIndex,
		Completed:  p.Completed,
		UpdatedAt:  p.UpdatedAt,
	}
}

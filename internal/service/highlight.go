package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/highlight"
	"github.com/lectioapp/lectio-server/internal/id"
	"github.com/lectioapp/lectio-server/internal/playback"
	"github.com/lectioapp/lectio-server/internal/sse"
	"github.com/lectioapp/lectio-server/internal/store"
	"github.com/lectioapp/lectio-server/internal/store/sqlite"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// liveSession is one client's running highlight session: its controller,
// the push feed the API writes position samples into, and the listening
// record that is closed when the session ends.
type liveSession struct {
	ID        string
	ClientID  string
	ReadingID string
	Type      domain.ReadingType

	source      *playback.PushSource
	controller  *highlight.Controller
	unsubscribe func()
	record      *domain.ListeningRecord
	startedAt   time.Time

	mu      sync.Mutex
	lastPos int64
}

func (ls *liveSession) notePosition(positionMs int64) {
	ls.mu.Lock()
	if positionMs > ls.lastPos {
		ls.lastPos = positionMs
	}
	ls.mu.Unlock()
}

func (ls *liveSession) position() int64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.lastPos
}

// SessionInfo is a snapshot of a live session for API responses.
type SessionInfo struct {
	ID               string               `json:"id"`
	ClientID         string               `json:"client_id"`
	ReadingID        string               `json:"reading_id"`
	ReadingType      domain.ReadingType   `json:"reading_type"`
	State            string               `json:"state"`
	CurrentWordIndex int                  `json:"current_word_index"`
	CurrentWord      *timing.WordBoundary `json:"current_word,omitempty"`
}

// HighlightService owns all live highlight sessions. Each client has at
// most one; starting a new session displaces the previous one.
type HighlightService struct {
	store    *store.Store
	history  *sqlite.Store
	provider highlight.TableProvider
	manager  *sse.Manager
	logger   *slog.Logger

	// defaultToleranceMs is used when a start request does not carry
	// its own tolerance; <= 0 falls through to the resolver default.
	defaultToleranceMs int64

	mu       sync.Mutex
	sessions map[string]*liveSession // by session ID
	byClient map[string]string       // client ID -> session ID
}

// NewHighlightService creates a new highlight service.
func NewHighlightService(st *store.Store, history *sqlite.Store, provider highlight.TableProvider, manager *sse.Manager, logger *slog.Logger) *HighlightService {
	return &HighlightService{
		store:    st,
		history:  history,
		provider: provider,
		manager:  manager,
		logger:   logger,
		sessions: make(map[string]*liveSession),
		byClient: make(map[string]string),
	}
}

// SetDefaultTolerance sets the pre-light window applied to sessions that
// do not request their own.
func (s *HighlightService) SetDefaultTolerance(toleranceMs int64) {
	s.defaultToleranceMs = toleranceMs
}

// StartSession starts highlighting a reading for one client. Any prior
// session owned by the same client is stopped first. toleranceMs <= 0
// keeps the default pre-light window.
func (s *HighlightService) StartSession(ctx context.Context, clientID, readingID string, rt domain.ReadingType, toleranceMs int64) (*SessionInfo, error) {
	if clientID == "" {
		return nil, errors.Validation("client ID is required")
	}
	if !rt.IsValid() {
		return nil, errors.Validationf("unknown reading type %q", rt)
	}

	// One session per client.
	s.mu.Lock()
	if priorID, ok := s.byClient[clientID]; ok {
		if prior, ok := s.sessions[priorID]; ok {
			s.teardownLocked(prior, false)
		}
	}
	s.mu.Unlock()

	sessionID, err := id.Generate("hl")
	if err != nil {
		return nil, errors.Internal("generate session ID").WithCause(err)
	}

	ls := &liveSession{
		ID:        sessionID,
		ClientID:  clientID,
		ReadingID: readingID,
		Type:      rt,
		source:    playback.NewPushSource(),
		startedAt: time.Now(),
	}
	ls.controller = highlight.NewController(ls.source, s.provider, s.logger)
	bridge := &sessionBridge{service: s, session: ls}
	ls.unsubscribe = ls.controller.Subscribe(highlight.Listener{
		OnWordChange: bridge.OnWordChange,
		OnComplete:   bridge.OnComplete,
		OnError:      bridge.OnError,
	})

	if toleranceMs <= 0 {
		toleranceMs = s.defaultToleranceMs
	}
	if err := ls.controller.Start(ctx, highlight.Config{
		ReadingID:   readingID,
		ReadingType: rt,
		ToleranceMs: toleranceMs,
	}); err != nil {
		ls.unsubscribe()
		return nil, err
	}

	recordID, err := id.Generate("listen")
	if err == nil {
		ls.record = domain.NewListeningRecord(recordID, clientID, readingID, rt)
		if createErr := s.history.CreateListeningRecord(ctx, ls.record); createErr != nil {
			s.logger.Warn("failed to create listening record",
				"session_id", sessionID, "error", createErr)
			ls.record = nil
		}
	}

	s.mu.Lock()
	s.sessions[sessionID] = ls
	s.byClient[clientID] = sessionID
	s.mu.Unlock()

	s.logger.Info("highlight session started",
		"session_id", sessionID,
		"client_id", clientID,
		"reading_id", readingID,
		"reading_type", string(rt),
	)
	return s.info(ls), nil
}

// PushSample feeds one playback position sample into a session.
func (s *HighlightService) PushSample(sessionID string, sample playback.Sample) error {
	ls, err := s.get(sessionID)
	if err != nil {
		return err
	}
	ls.notePosition(sample.PositionMs)
	ls.source.Push(sample)
	return nil
}

// Pause pauses a session's highlighting.
func (s *HighlightService) Pause(sessionID string) error {
	ls, err := s.get(sessionID)
	if err != nil {
		return err
	}
	ls.controller.Pause()
	return nil
}

// Resume resumes a paused session.
func (s *HighlightService) Resume(sessionID string) error {
	ls, err := s.get(sessionID)
	if err != nil {
		return err
	}
	ls.controller.Resume()
	return nil
}

// Seek repositions a session's highlight cursor without replaying
// intermediate words.
func (s *HighlightService) Seek(sessionID string, positionMs int64) error {
	ls, err := s.get(sessionID)
	if err != nil {
		return err
	}
	ls.notePosition(positionMs)
	ls.controller.Seek(positionMs)
	return nil
}

// StopSession tears a session down, closing its listening record.
func (s *HighlightService) StopSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ls, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return errors.NotFoundf("no highlight session %q", sessionID)
	}
	s.teardownLocked(ls, false)
	s.mu.Unlock()
	return nil
}

// GetSession returns a snapshot of one live session.
func (s *HighlightService) GetSession(sessionID string) (*SessionInfo, error) {
	ls, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(ls), nil
}

// SessionCount reports the number of live sessions.
func (s *HighlightService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops every live session. Called on server shutdown.
func (s *HighlightService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.sessions {
		s.teardownLocked(ls, false)
	}
}

// ListeningHistory returns a client's past listens, newest first.
func (s *HighlightService) ListeningHistory(ctx context.Context, clientID string) ([]*domain.ListeningRecord, error) {
	if clientID == "" {
		return nil, errors.Validation("client ID is required")
	}
	return s.history.GetListeningRecords(ctx, clientID)
}

// ListeningStats aggregates a client's listen counts and total time.
func (s *HighlightService) ListeningStats(ctx context.Context, clientID string) (*sqlite.ListeningStats, error) {
	if clientID == "" {
		return nil, errors.Validation("client ID is required")
	}
	return s.history.GetListeningStats(ctx, clientID)
}

// ProgressForClient returns all highlight checkpoints for a client.
func (s *HighlightService) ProgressForClient(ctx context.Context, clientID string) ([]*domain.HighlightProgress, error) {
	if clientID == "" {
		return nil, errors.Validation("client ID is required")
	}
	return s.store.ListProgressForClient(ctx, clientID)
}

// ProgressForReading returns one client's checkpoint on one reading.
func (s *HighlightService) ProgressForReading(ctx context.Context, clientID, readingID string) (*domain.HighlightProgress, error) {
	if clientID == "" || readingID == "" {
		return nil, errors.Validation("client ID and reading ID are required")
	}
	return s.store.GetProgress(ctx, clientID, readingID)
}

func (s *HighlightService) get(sessionID string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.NotFoundf("no highlight session %q", sessionID)
	}
	return ls, nil
}

func (s *HighlightService) info(ls *liveSession) *SessionInfo {
	return &SessionInfo{
		ID:               ls.ID,
		ClientID:         ls.ClientID,
		ReadingID:        ls.ReadingID,
		ReadingType:      ls.Type,
		State:            string(ls.controller.State()),
		CurrentWordIndex: ls.controller.CurrentWordIndex(),
		CurrentWord:      ls.controller.CurrentWord(),
	}
}

// teardownLocked stops a session and closes its record. Caller holds s.mu.
func (s *HighlightService) teardownLocked(ls *liveSession, completed bool) {
	completed = completed || ls.controller.State() == highlight.StateCompleted
	lastWord := ls.controller.CurrentWordIndex()

	ls.controller.Stop()
	ls.unsubscribe()

	delete(s.sessions, ls.ID)
	if s.byClient[ls.ClientID] == ls.ID {
		delete(s.byClient, ls.ClientID)
	}

	if ls.record != nil {
		ls.record.Finish(completed, ls.position(), lastWord)
		if err := s.history.FinishListeningRecord(context.Background(), ls.record); err != nil {
			s.logger.Warn("failed to finish listening record",
				"session_id", ls.ID, "error", err)
		}
	}

	s.logger.Info("highlight session stopped",
		"session_id", ls.ID,
		"client_id", ls.ClientID,
		"completed", completed,
		"duration", time.Since(ls.startedAt),
	)
}

// sessionBridge forwards controller events to SSE and persists progress
// checkpoints.
type sessionBridge struct {
	service *HighlightService
	session *liveSession
}

func (b *sessionBridge) OnWordChange(word *timing.WordBoundary, index int) {
	b.service.manager.Emit(sse.NewWordChangedEvent(b.session.ID, b.session.ReadingID, word, index))

	progress := domain.NewHighlightProgress(b.session.ClientID, b.session.ReadingID, b.session.Type)
	progress.Advance(b.session.position(), index)
	if err := b.service.store.SaveProgress(context.Background(), progress); err != nil {
		b.service.logger.Warn("failed to save highlight progress",
			"session_id", b.session.ID, "error", err)
	}
}

func (b *sessionBridge) OnComplete() {
	b.service.manager.Emit(sse.NewHighlightCompletedEvent(b.session.ID, b.session.ReadingID))

	progress := domain.NewHighlightProgress(b.session.ClientID, b.session.ReadingID, b.session.Type)
	progress.Advance(b.session.position(), b.session.controller.CurrentWordIndex())
	progress.Completed = true
	if err := b.service.store.SaveProgress(context.Background(), progress); err != nil {
		b.service.logger.Warn("failed to save highlight progress",
			"session_id", b.session.ID, "error", err)
	}
}

func (b *sessionBridge) OnError(err error) {
	b.service.manager.Emit(sse.NewHighlightErroredEvent(b.session.ID, b.session.ReadingID, err.Error()))
}

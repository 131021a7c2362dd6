// Package highlight implements the word-level audio/text synchronization
// engine: a session owning the highlight cursor for one reading, and a
// controller that drives it from a playback position feed.
package highlight

import (
	"sync"

	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// Phase is the lifecycle phase of a highlight session.
type Phase string

const (
	// PhaseIdle means no table is loaded.
	PhaseIdle Phase = "idle"
	// PhaseActive means position updates move the cursor.
	PhaseActive Phase = "active"
	// PhasePaused means position updates are dropped, cursor frozen.
	PhasePaused Phase = "paused"
	// PhaseCompleted means playback finished; the session is terminal
	// for position updates but still answers cursor queries.
	PhaseCompleted Phase = "completed"
	// PhaseErrored means the session is disabled by bad timing data.
	PhaseErrored Phase = "errored"
)

// Change reports the cursor landing on a new word. Word is nil when the
// cursor moved to "no active word" (index timing.NoWord).
type Change struct {
	Index int
	Word  *timing.WordBoundary
}

// Session owns one validated timing table plus the mutable highlight
// cursor. All mutation is serialized internally: the position feed and a
// user-initiated seek may race from different goroutines.
//
// A stopped session resets to Idle and is reusable.
type Session struct {
	mu          sync.Mutex
	table       *timing.Table
	phase       Phase
	current     int
	lastPos     int64
	toleranceMs int64
}

// NewSession creates an idle session with the default pre-light tolerance.
func NewSession() *Session {
	return &Session{
		phase:       PhaseIdle,
		current:     timing.NoWord,
		toleranceMs: timing.DefaultToleranceMs,
	}
}

// SetTolerance overrides the gap pre-light window. Only meaningful before
// Start; zero or negative keeps the default.
func (s *Session) SetTolerance(toleranceMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if toleranceMs > 0 {
		s.toleranceMs = toleranceMs
	}
}

// Start loads a validated table and activates the session with no word
// highlighted yet. Starting over a live session implicitly resets it first.
func (s *Session) Start(table *timing.Table) error {
	if table == nil {
		return errors.InvalidTimingData("no timing table")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.phase = PhaseActive
	s.current = timing.NoWord
	s.lastPos = 0
	return nil
}

// ApplyPosition advances the cursor to the word active at positionMs.
// Returns a change only when the resolved index differs from the current
// one; repeated samples inside the same word are no-ops, which is what
// keeps per-frame feeds from causing redundant re-renders downstream.
// Dropped entirely unless the session is Active.
func (s *Session) ApplyPosition(positionMs int64) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return Change{}, false
	}

	s.lastPos = positionMs
	return s.moveTo(timing.Resolve(s.table, positionMs, s.toleranceMs))
}

// Seek jumps the cursor straight to the word at positionMs without visiting
// any index in between. Emits at most one change. Allowed in any phase that
// has a table and is not Errored; a seek on a Paused or Completed session
// moves the cursor but leaves the phase alone.
func (s *Session) Seek(positionMs int64) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseIdle || s.phase == PhaseErrored {
		return Change{}, false
	}

	s.lastPos = positionMs
	return s.moveTo(timing.Resolve(s.table, positionMs, s.toleranceMs))
}

// moveTo updates the cursor and reports whether it actually moved.
// Callers hold s.mu.
func (s *Session) moveTo(idx int) (Change, bool) {
	if idx == s.current {
		return Change{}, false
	}
	s.current = idx
	return Change{Index: idx, Word: s.table.Word(idx)}, true
}

// Pause freezes the cursor. Position updates while paused are dropped,
// never queued. No-op unless Active.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseActive {
		s.phase = PhasePaused
	}
}

// Resume reactivates a paused session without touching the cursor.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhasePaused {
		s.phase = PhaseActive
	}
}

// MarkCompleted transitions to Completed exactly once and reports whether
// this call made the transition. Players may report "finished" repeatedly;
// every call after the first is a no-op.
func (s *Session) MarkCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseCompleted || s.phase == PhaseIdle || s.phase == PhaseErrored {
		return false
	}
	s.phase = PhaseCompleted
	return true
}

// MarkErrored disables the session. Highlighting is additive: an errored
// session answers queries with "no word" and drops all updates, it never
// half-works.
func (s *Session) MarkErrored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseErrored
	s.current = timing.NoWord
}

// Stop tears the session down to a fresh Idle state. Never fails, safe to
// call in any phase.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
	s.phase = PhaseIdle
	s.current = timing.NoWord
	s.lastPos = 0
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentIndex returns the active word index, or timing.NoWord.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentWord returns the active word boundary, or nil when no word is
// active or no table is loaded.
func (s *Session) CurrentWord() *timing.WordBoundary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil
	}
	return s.table.Word(s.current)
}

// LastPosition returns the most recently applied playback position.
func (s *Session) LastPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPos
}

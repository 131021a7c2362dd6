package highlight

import (
	"context"
	"log/slog"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/playback"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// State is the controller's lifecycle state.
type State string

const (
	// StateIdle means no reading is loaded.
	StateIdle State = "idle"
	// StateLoading means the timing table fetch is in flight.
	StateLoading State = "loading"
	// StateActive means samples drive the highlight cursor.
	StateActive State = "active"
	// StatePaused means playback is paused; samples are dropped.
	StatePaused State = "paused"
	// StateCompleted means playback finished; terminal for samples.
	StateCompleted State = "completed"
	// StateErrored means highlighting is disabled for this reading.
	StateErrored State = "errored"
)

// TableProvider fetches and validates the timing table for a reading.
type TableProvider interface {
	FetchTimingTable(ctx context.Context, readingID string, rt domain.ReadingType) (*timing.Table, error)
}

// Config selects the reading to synchronize and tunes the resolver.
type Config struct {
	ReadingID   string
	ReadingType domain.ReadingType
	// ToleranceMs overrides the gap pre-light window; <=0 keeps the default.
	ToleranceMs int64
}

// Controller is the state machine translating a playback position feed
// into discrete word-change, completion, and error events. It owns exactly
// one Session at a time; starting a new reading implicitly stops the prior
// one. Highlighting is strictly additive: no controller failure ever
// blocks or interrupts audio playback.
type Controller struct {
	source   playback.Source
	provider TableProvider
	logger   *slog.Logger
	bus      *Bus

	// mu in Session guards the cursor; this struct's state transitions
	// are serialized by the session mutex plus the cancel handshake, so
	// the controller only adds its own tiny state word.
	session    *Session
	state      *stateBox
	cancelFeed func()
}

// NewController wires a controller to its playback feed and timing data
// provider. The controller is Idle until Start.
func NewController(source playback.Source, provider TableProvider, logger *slog.Logger) *Controller {
	return &Controller{
		source:   source,
		provider: provider,
		logger:   logger,
		bus:      NewBus(logger),
		session:  NewSession(),
		state:    newStateBox(),
	}
}

// Subscribe registers a listener for word-change and terminal events.
// The returned unsubscribe is idempotent.
func (c *Controller) Subscribe(l Listener) func() {
	return c.bus.Subscribe(l)
}

// Start fetches the reading's timing table, validates it, and begins
// consuming the playback feed. A fetch or validation failure leaves the
// controller Errored and fires OnError once; the caller's audio keeps
// playing either way. A failed Start is terminal for this load — call
// Start again to retry with a fresh fetch.
func (c *Controller) Start(ctx context.Context, cfg Config) error {
	// Single-owner: a second Start displaces whatever was running.
	// Listeners stay registered — UI surfaces outlive reading changes —
	// but the old session's feed and cursor are gone.
	c.detach()

	c.state.set(StateLoading)

	table, err := c.provider.FetchTimingTable(ctx, cfg.ReadingID, cfg.ReadingType)
	if err == nil {
		err = c.session.Start(table)
	}
	if err != nil {
		c.state.set(StateErrored)
		c.session.MarkErrored()
		c.logger.Warn("highlighting disabled for reading",
			"reading_id", cfg.ReadingID,
			"reading_type", string(cfg.ReadingType),
			"error", err)
		c.bus.EmitError(err)
		return err
	}

	if cfg.ToleranceMs > 0 {
		c.session.SetTolerance(cfg.ToleranceMs)
	}

	c.state.set(StateActive)
	c.cancelFeed = c.source.Subscribe(c.onSample)

	c.logger.Info("highlight session started",
		"reading_id", cfg.ReadingID,
		"reading_type", string(cfg.ReadingType),
		"words", table.Len())
	return nil
}

// onSample applies one playback observation. Rule order matters: a
// finished flag wins over everything, pause beats position application,
// and only a playing sample moves the cursor.
func (c *Controller) onSample(s playback.Sample) {
	switch c.state.get() {
	case StateActive, StatePaused:
	default:
		// Idle, Loading, Completed, Errored: samples are silently dropped.
		return
	}

	if s.Finished {
		c.complete()
		return
	}

	if !s.Playing {
		if c.state.transition(StateActive, StatePaused) {
			c.session.Pause()
		}
		return
	}

	if c.state.transition(StatePaused, StateActive) {
		c.session.Resume()
	}

	if change, ok := c.session.ApplyPosition(s.PositionMs); ok {
		c.bus.EmitWordChange(change.Word, change.Index)
	}
}

// complete makes the one-and-only completion transition.
func (c *Controller) complete() {
	if !c.session.MarkCompleted() {
		return
	}
	c.state.set(StateCompleted)
	c.logger.Info("highlight session completed")
	c.bus.EmitComplete()
}

// Pause suspends highlighting imperatively (UI pause button), mirroring
// what a non-playing sample does.
func (c *Controller) Pause() {
	if c.state.transition(StateActive, StatePaused) {
		c.session.Pause()
	}
}

// Resume reactivates a paused controller.
func (c *Controller) Resume() {
	if c.state.transition(StatePaused, StateActive) {
		c.session.Resume()
	}
}

// Seek jumps the cursor to positionMs, emitting at most one word change
// and never replaying the words in between. Accepted while Active, Paused,
// or Completed (a rewind after the end is how users replay a reading);
// ignored when Idle, Loading, or Errored.
func (c *Controller) Seek(positionMs int64) {
	switch c.state.get() {
	case StateActive, StatePaused, StateCompleted:
	default:
		return
	}

	if change, ok := c.session.Seek(positionMs); ok {
		c.bus.EmitWordChange(change.Word, change.Index)
	}
}

// Stop cancels the feed subscription, resets the session, and drops all
// listeners. Callable from any state, including from inside a listener
// callback, and always returns the controller to Idle.
func (c *Controller) Stop() {
	c.detach()
	c.bus.Reset()
	c.state.set(StateIdle)
}

// detach cancels the feed subscription and resets the session cursor,
// leaving bus listeners in place.
func (c *Controller) detach() {
	if c.cancelFeed != nil {
		c.cancelFeed()
		c.cancelFeed = nil
	}
	c.session.Stop()
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state.get()
}

// CurrentWordIndex returns the active word index, or timing.NoWord.
func (c *Controller) CurrentWordIndex() int {
	return c.session.CurrentIndex()
}

// CurrentWord returns the active word boundary, or nil.
func (c *Controller) CurrentWord() *timing.WordBoundary {
	return c.session.CurrentWord()
}

// Errored reports whether highlighting is disabled for the current load.
func (c *Controller) Errored() bool {
	return c.state.get() == StateErrored
}

// ErrNotStarted is returned by operations that need a live session.
var ErrNotStarted = errors.SessionState("highlight session not started")

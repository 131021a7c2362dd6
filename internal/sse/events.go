// Package sse implements Server-Sent Events for live word highlighting
// and reading catalog updates.
package sse

import (
	"time"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// Highlight state changes flow server-to-client only; session control
// (start, pause, seek) stays on the request/response API, so SSE is
// enough and WebSockets stay out of the picture.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventReadingCreated represents a reading creation event.
	EventReadingCreated EventType = "reading.created"
	// EventReadingUpdated represents a reading update event.
	EventReadingUpdated EventType = "reading.updated"
	// EventReadingDeleted represents a reading deletion event.
	EventReadingDeleted EventType = "reading.deleted"

	// EventTimingLoaded represents a timing table becoming available.
	EventTimingLoaded EventType = "timing.loaded"

	// EventWordChanged represents the highlight cursor moving to a new
	// word (or to none, during lead-in silence).
	EventWordChanged EventType = "highlight.word_changed"
	// EventHighlightCompleted represents a highlight session reaching the
	// end of its audio.
	EventHighlightCompleted EventType = "highlight.completed"
	// EventHighlightErrored represents a highlight session failing.
	EventHighlightErrored EventType = "highlight.errored"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// When SessionID is set the event is only delivered to the client
	// that owns that highlight session. Empty means broadcast to all.
	SessionID string `json:"-"`
}

// ReadingEventData is the data payload for reading create/update events.
type ReadingEventData struct {
	Reading *domain.Reading `json:"reading"`
}

// ReadingDeletedEventData is the data payload for reading delete events.
type ReadingDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ReadingID string    `json:"reading_id"`
}

// TimingLoadedEventData is the data payload for timing.loaded events.
type TimingLoadedEventData struct {
	ReadingID   string `json:"reading_id"`
	ReadingType string `json:"reading_type"`
	WordCount   int    `json:"word_count"`
}

// WordChangedEventData is the data payload for highlight.word_changed.
// Word is null while the cursor sits in lead-in silence (index -1).
type WordChangedEventData struct {
	Word      *timing.WordBoundary `json:"word"`
	Index     int                  `json:"index"`
	SessionID string               `json:"session_id"`
	ReadingID string               `json:"reading_id"`
}

// HighlightCompletedEventData is the data payload for highlight.completed.
type HighlightCompletedEventData struct {
	SessionID string `json:"session_id"`
	ReadingID string `json:"reading_id"`
}

// HighlightErroredEventData is the data payload for highlight.errored.
type HighlightErroredEventData struct {
	SessionID string `json:"session_id"`
	ReadingID string `json:"reading_id"`
	Message   string `json:"message"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewReadingCreatedEvent creates a reading.created event.
func NewReadingCreatedEvent(reading *domain.Reading) Event {
	return Event{
		Type:      EventReadingCreated,
		Timestamp: time.Now(),
		Data:      ReadingEventData{Reading: reading},
	}
}

// NewReadingUpdatedEvent creates a reading.updated event.
func NewReadingUpdatedEvent(reading *domain.Reading) Event {
	return Event{
		Type:      EventReadingUpdated,
		Timestamp: time.Now(),
		Data:      ReadingEventData{Reading: reading},
	}
}

// NewReadingDeletedEvent creates a reading.deleted event.
func NewReadingDeletedEvent(readingID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventReadingDeleted,
		Timestamp: time.Now(),
		Data: ReadingDeletedEventData{
			ReadingID: readingID,
			DeletedAt: deletedAt,
		},
	}
}

// NewTimingLoadedEvent creates a timing.loaded event.
func NewTimingLoadedEvent(readingID, readingType string, wordCount int) Event {
	return Event{
		Type:      EventTimingLoaded,
		Timestamp: time.Now(),
		Data: TimingLoadedEventData{
			ReadingID:   readingID,
			ReadingType: readingType,
			WordCount:   wordCount,
		},
	}
}

// NewWordChangedEvent creates a highlight.word_changed event scoped to one
// session.
func NewWordChangedEvent(sessionID, readingID string, word *timing.WordBoundary, index int) Event {
	return Event{
		Type:      EventWordChanged,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: WordChangedEventData{
			Word:      word,
			Index:     index,
			SessionID: sessionID,
			ReadingID: readingID,
		},
	}
}

// NewHighlightCompletedEvent creates a highlight.completed event scoped to
// one session.
func NewHighlightCompletedEvent(sessionID, readingID string) Event {
	return Event{
		Type:      EventHighlightCompleted,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: HighlightCompletedEventData{
			SessionID: sessionID,
			ReadingID: readingID,
		},
	}
}

// NewHighlightErroredEvent creates a highlight.errored event scoped to one
// session.
func NewHighlightErroredEvent(sessionID, readingID, message string) Event {
	return Event{
		Type:      EventHighlightErrored,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: HighlightErroredEventData{
			SessionID: sessionID,
			ReadingID: readingID,
			Message:   message,
		},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatEventData{ServerTime: time.Now()},
	}
}

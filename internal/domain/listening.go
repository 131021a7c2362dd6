package domain

import "time"

// ListeningRecord is one completed or abandoned listen of a reading.
// Records feed the learner's history view and streak calculations.
type ListeningRecord struct {
	ID           string      `json:"id"`
	ClientID     string      `json:"client_id"`
	ReadingID    string      `json:"reading_id"`
	ReadingType  ReadingType `json:"reading_type"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	Completed    bool        `json:"completed"`
	ListenTimeMs int64       `json:"listen_time_ms"`
	LastWordIdx  int         `json:"last_word_index"`
}

// NewListeningRecord starts a record for one playback attempt.
func NewListeningRecord(id, clientID, readingID string, rt ReadingType) *ListeningRecord {
	return &ListeningRecord{
		ID:          id,
		ClientID:    clientID,
		ReadingID:   readingID,
		ReadingType: rt,
		StartedAt:   time.Now(),
		LastWordIdx: -1,
	}
}

// Finish closes the record. Completed listens are those that reached the
// end-of-audio signal rather than being stopped early.
func (r *ListeningRecord) Finish(completed bool, listenTimeMs int64, lastWordIdx int) {
	now := time.Now()
	r.FinishedAt = &now
	r.Completed = completed
	r.ListenTimeMs = listenTimeMs
	r.LastWordIdx = lastWordIdx
}

// IsActive reports whether the record is still open.
func (r *ListeningRecord) IsActive() bool {
	return r.FinishedAt == nil
}

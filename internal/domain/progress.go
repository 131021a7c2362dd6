package domain

import "time"

// HighlightProgress is a resume checkpoint for one client on one reading.
// It is written periodically while a highlight session is active, so a
// client that reconnects can pick up near where it left off.
type HighlightProgress struct {
	ClientID   string      `json:"client_id"`
	ReadingID  string      `json:"reading_id"`
	Type       ReadingType `json:"type"`
	PositionMs int64       `json:"position_ms"`
	WordIndex  int         `json:"word_index"`
	Completed  bool        `json:"completed"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewHighlightProgress creates a checkpoint stamped with the current time.
func NewHighlightProgress(clientID, readingID string, rt ReadingType) *HighlightProgress {
	return &HighlightProgress{
		ClientID:  clientID,
		ReadingID: readingID,
		Type:      rt,
		WordIndex: -1,
		UpdatedAt: time.Now(),
	}
}

// Advance records a new position and word index.
func (p *HighlightProgress) Advance(positionMs int64, wordIndex int) {
	p.PositionMs = positionMs
	p.WordIndex = wordIndex
	p.UpdatedAt = time.Now()
}

// Package domain contains the core domain models for the Lectio server.
package domain

import (
	"fmt"
	"time"
)

// ReadingType identifies which liturgical reading of the day this is.
type ReadingType string

const (
	// ReadingFirst is the first reading (usually Old Testament).
	ReadingFirst ReadingType = "first"
	// ReadingPsalm is the responsorial psalm.
	ReadingPsalm ReadingType = "psalm"
	// ReadingSecond is the second reading (usually an epistle).
	ReadingSecond ReadingType = "second"
	// ReadingGospel is the gospel reading.
	ReadingGospel ReadingType = "gospel"
)

// IsValid reports whether rt is one of the known reading types.
func (rt ReadingType) IsValid() bool {
	switch rt {
	case ReadingFirst, ReadingPsalm, ReadingSecond, ReadingGospel:
		return true
	}
	return false
}

// ReadingTypes returns the reading types in their liturgical order.
func ReadingTypes() []ReadingType {
	return []ReadingType{ReadingFirst, ReadingPsalm, ReadingSecond, ReadingGospel}
}

// Reading is one scripture passage with its narrated audio.
// The Text field is the exact text the timing table's character offsets
// index into, so it must never be normalized after ingestion.
type Reading struct {
	ID         string      `json:"id"`
	Type       ReadingType `json:"type"`
	Date       string      `json:"date"` // Liturgical date, YYYY-MM-DD
	Reference  string      `json:"reference"`
	Title      string      `json:"title,omitempty"`
	Text       string      `json:"text"`
	AudioURL   string      `json:"audio_url,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewReading creates a reading with timestamps set.
func NewReading(id string, rt ReadingType, date, reference, text string) *Reading {
	now := time.Now()
	return &Reading{
		ID:        id,
		Type:      rt,
		Date:      date,
		Reference: reference,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (r *Reading) Touch() {
	r.UpdatedAt = time.Now()
}

// TimingKey returns the store key fragment identifying this reading's
// timing table (readings and tables are stored separately so a reading
// without narration timing is still servable).
func (r *Reading) TimingKey() string {
	return fmt.Sprintf("%s:%s", r.ID, r.Type)
}

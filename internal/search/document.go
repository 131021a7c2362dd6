// Package search provides full-text search over readings using Bleve.
// Learners search by reference ("John 1"), by words they remember from a
// passage, or by liturgical date.
package search

import (
	"github.com/lectioapp/lectio-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
type SearchDocument struct {
	// Identity
	ID   string `json:"id"`
	Type string `json:"type"` // Reading type: first, psalm, second, gospel

	// Searchable text
	Reference string `json:"reference"` // e.g. "Jn 1:1-18"
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"` // Full passage text

	// Date for exact filtering (YYYY-MM-DD, keyword analyzed)
	Date string `json:"date"`

	// Numeric fields for range queries and sorting
	Duration int64 `json:"duration,omitempty"` // Audio length in ms

	// Timestamps for sorting by recency, Unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// FromReading converts a domain reading into its search document.
func FromReading(r *domain.Reading) *SearchDocument {
	return &SearchDocument{
		ID:        r.ID,
		Type:      string(r.Type),
		Reference: r.Reference,
		Title:     r.Title,
		Text:      r.Text,
		Date:      r.Date,
		Duration:  r.DurationMs,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       d.Type,
		"reference":  d.Reference,
		"text":       d.Text,
		"date":       d.Date,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Title != "" {
		m["title"] = d.Title
	}
	if d.Duration > 0 {
		m["duration"] = d.Duration
	}

	return m
}

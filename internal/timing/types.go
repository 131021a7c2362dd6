// Package timing provides validated word-level timing tables and position
// resolution for synchronized audio/text highlighting.
package timing

import "github.com/lectioapp/lectio-server/internal/domain"

// WordBoundary is one narrated token's audio interval and its location in
// the reading text.
type WordBoundary struct {
	Word       string `json:"word"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
	Index      int    `json:"index"`
	CharOffset int    `json:"char_offset"`
	CharLength int    `json:"char_length"`
}

// Table is an immutable, validated view over the ordered word boundaries
// for one reading's narration. Construct with NewTable; after construction
// all lookups assume the invariants hold and never re-validate.
type Table struct {
	ReadingID   string             `json:"reading_id"`
	ReadingType domain.ReadingType `json:"reading_type"`
	DurationMs  int64              `json:"duration_ms"`

	words []WordBoundary
}

// Words returns the table's word boundaries. The returned slice must not
// be mutated.
func (t *Table) Words() []WordBoundary {
	return t.words
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	return len(t.words)
}

// Word returns the boundary at index i, or nil if i is out of range
// (including the "no active word" index -1).
func (t *Table) Word(i int) *WordBoundary {
	if i < 0 || i >= len(t.words) {
		return nil
	}
	return &t.words[i]
}

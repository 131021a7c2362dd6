package timing

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
)

// NewTable validates raw word boundaries and builds an immutable Table.
// Validation runs once, in O(n); a table failing any invariant is rejected
// as a whole so a session can never start on partially valid data.
//
// Invariants checked:
//   - start <= end for every word
//   - words sorted strictly ascending by start time
//   - word i carries index i (no gaps, no duplicates)
//   - intervals never overlap (silent gaps between words are fine)
//   - the last word ends at or before the audio duration
//
// An empty word list is valid and means "no highlighting available".
func NewTable(readingID string, rt domain.ReadingType, words []WordBoundary, durationMs int64) (*Table, error) {
	if durationMs < 0 {
		return nil, errors.InvalidTimingData("negative audio duration")
	}

	for i := range words {
		w := &words[i]
		if w.Word == "" {
			return nil, errors.InvalidTimingDataf("word %d is empty", i)
		}
		if w.StartMs < 0 {
			return nil, errors.InvalidTimingDataf("word %d has negative start %dms", i, w.StartMs)
		}
		if w.StartMs > w.EndMs {
			return nil, errors.InvalidTimingDataf("word %d starts at %dms after its end %dms", i, w.StartMs, w.EndMs)
		}
		if w.Index != i {
			return nil, errors.InvalidTimingDataf("word %d carries index %d", i, w.Index)
		}
		if w.CharOffset < 0 || w.CharLength <= 0 {
			return nil, errors.InvalidTimingDataf("word %d has invalid text span [%d,+%d]", i, w.CharOffset, w.CharLength)
		}
		if i > 0 {
			prev := &words[i-1]
			if w.StartMs <= prev.StartMs {
				return nil, errors.InvalidTimingDataf("word %d starts at %dms, not after word %d at %dms", i, w.StartMs, i-1, prev.StartMs)
			}
			if w.StartMs < prev.EndMs {
				return nil, errors.InvalidTimingDataf("word %d overlaps word %d", i, i-1)
			}
		}
	}

	if n := len(words); n > 0 && words[n-1].EndMs > durationMs {
		return nil, errors.InvalidTimingDataf("last word ends at %dms beyond audio duration %dms", words[n-1].EndMs, durationMs)
	}

	// Copy so callers can't mutate the validated table from outside.
	owned := make([]WordBoundary, len(words))
	copy(owned, words)

	return &Table{
		ReadingID:   readingID,
		ReadingType: rt,
		DurationMs:  durationMs,
		words:       owned,
	}, nil
}

var foldCaser = cases.Fold()

// VerifyText checks that every word's character span indexes a substring of
// the reading text matching the word, ignoring case and punctuation. Timing
// tables are produced by an external alignment pipeline against the exact
// stored text, so a mismatch means the table belongs to a different revision
// of the reading.
func (t *Table) VerifyText(text string) error {
	for i := range t.words {
		w := &t.words[i]
		end := w.CharOffset + w.CharLength
		if end > len(text) {
			return errors.InvalidTimingDataf("word %d text span [%d,%d) exceeds text length %d", i, w.CharOffset, end, len(text))
		}
		if !wordsEquivalent(text[w.CharOffset:end], w.Word) {
			return errors.InvalidTimingDataf("word %d span %q does not match word %q", i, text[w.CharOffset:end], w.Word)
		}
	}
	return nil
}

// wordsEquivalent compares two tokens ignoring case and punctuation.
func wordsEquivalent(a, b string) bool {
	return normalizeToken(a) == normalizeToken(b)
}

func normalizeToken(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
	return foldCaser.String(stripped)
}

package timing

import "sort"

// DefaultToleranceMs is the pre-light window for silent gaps between words.
// A gap shorter than this reads as a breath between words, so the upcoming
// word lights early instead of the highlight visibly lagging the narrator.
// Longer silences (sentence and verse breaks) hold the last spoken word.
const DefaultToleranceMs = 150

// NoWord is the index reported when no word is active at a position.
const NoWord = -1

// Resolve maps a playback position to the index of the active word, or
// NoWord when the position precedes the first word (lead-in silence) or the
// table is empty. Positions at or beyond the end of the last word resolve to
// the last index; completion is a controller-level signal, never inferred
// here from the position alone.
//
// O(log n) per call. Safe at per-frame call rates against tables of any size.
func Resolve(t *Table, positionMs int64, toleranceMs int64) int {
	words := t.words
	n := len(words)
	if n == 0 || positionMs < words[0].StartMs {
		return NoWord
	}

	// Greatest i with words[i].StartMs <= positionMs.
	i := sort.Search(n, func(j int) bool {
		return words[j].StartMs > positionMs
	}) - 1

	if positionMs <= words[i].EndMs {
		return i
	}

	// In the silent gap after word i.
	if i+1 < n {
		if words[i+1].StartMs-positionMs <= toleranceMs {
			return i + 1
		}
		return i
	}

	// At or past the end of the final word: hold it through trailing silence.
	return n - 1
}

// Package timingdata loads, validates, and serves word timing tables
// produced by the external alignment pipeline.
package timingdata

import (
	"encoding/json/v2"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/lectioapp/lectio-server/internal/domain"
	"github.com/lectioapp/lectio-server/internal/errors"
	"github.com/lectioapp/lectio-server/internal/timing"
)

// RawWord is one word row as delivered by the alignment pipeline.
type RawWord struct {
	Word       string `json:"word" validate:"required"`
	StartMs    int64  `json:"start_ms" validate:"gte=0"`
	EndMs      int64  `json:"end_ms" validate:"gte=0"`
	Index      int    `json:"index" validate:"gte=0"`
	CharOffset int    `json:"char_offset" validate:"gte=0"`
	CharLength int    `json:"char_length" validate:"gt=0"`
}

// RawTable is the wire shape of a timing table. This is the only
// structural contract the sync engine owns; everything else about the
// alignment pipeline is out of scope.
type RawTable struct {
	ReadingID   string    `json:"reading_id" validate:"required"`
	ReadingType string    `json:"reading_type" validate:"required,oneof=first psalm second gospel"`
	DurationMs  int64     `json:"duration_ms" validate:"gte=0"`
	Words       []RawWord `json:"words" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeRaw reads one raw table from JSON.
func DecodeRaw(r io.Reader) (*RawTable, error) {
	var raw RawTable
	if err := json.UnmarshalRead(r, &raw); err != nil {
		return nil, errors.InvalidTimingData("malformed timing JSON").WithCause(err)
	}
	return &raw, nil
}

// BuildTable validates a raw table and constructs the immutable runtime
// table. Field-level problems surface before the cross-row invariant
// checks so error messages point at the offending row.
func BuildTable(raw *RawTable) (*timing.Table, error) {
	if raw == nil {
		return nil, errors.InvalidTimingData("no timing table")
	}
	if err := validate.Struct(raw); err != nil {
		return nil, errors.InvalidTimingData("timing table failed field validation").WithCause(err)
	}

	words := make([]timing.WordBoundary, len(raw.Words))
	for i, w := range raw.Words {
		words[i] = timing.WordBoundary{
			Word:       w.Word,
			StartMs:    w.StartMs,
			EndMs:      w.EndMs,
			Index:      w.Index,
			CharOffset: w.CharOffset,
			CharLength: w.CharLength,
		}
	}

	return timing.NewTable(raw.ReadingID, domain.ReadingType(raw.ReadingType), words, raw.DurationMs)
}

package store

import "github.com/lectioapp/lectio-server/internal/errors"

// Sentinel errors. These carry the domain error codes so handlers can map
// them straight to HTTP statuses with errors.Is.
var (
	ErrReadingNotFound  = errors.NotFound("reading not found")
	ErrTimingNotFound   = errors.NotFound("timing table not found")
	ErrProgressNotFound = errors.NotFound("progress checkpoint not found")
)

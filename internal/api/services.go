package api

import (
	"github.com/lectioapp/lectio-server/internal/service"
)

// Services groups the business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Reading   *service.ReadingService   // Daily readings, timing ingest, and search
	Highlight *service.HighlightService // Live word-highlight sessions
}

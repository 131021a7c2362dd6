// Package playback defines the narrow interface to the external audio
// playback collaborator. The server never decodes or transports audio
// itself; it only consumes the position feed a player exposes.
package playback

// Sample is one observation of the player's state. Players push these
// many times per second while audio is loaded.
type Sample struct {
	PositionMs int64 `json:"position_ms"`
	Playing    bool  `json:"playing"`
	Finished   bool  `json:"finished"`
}

// Source is a playback-position feed. Subscribe registers a callback for
// every sample and returns a cancel function; cancel is idempotent.
// Samples may arrive on whatever goroutine the player uses, so consumers
// must do their own serialization.
type Source interface {
	Subscribe(fn func(Sample)) (cancel func())
}

// Controls is the imperative side of a player. The sync engine itself
// never drives playback; controls exist so callers can forward a UI seek
// to the player alongside the highlight seek.
type Controls interface {
	Play() error
	Pause() error
	Seek(positionMs int64) error
}

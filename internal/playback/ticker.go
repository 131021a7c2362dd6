package playback

import (
	"context"
	"sync"
	"time"
)

// TickerSource synthesizes a playback feed from wall-clock time. It stands
// in for a real player in the seed command and local demos: position
// advances while "playing", freezes while paused, and the feed reports
// finished once the configured duration elapses.
type TickerSource struct {
	durationMs int64
	interval   time.Duration

	mu         sync.Mutex
	subs       map[int]func(Sample)
	nextID     int
	positionMs int64
	playing    bool
	finished   bool
}

// NewTickerSource creates a synthetic player for audio of the given
// duration, emitting samples at the given interval.
func NewTickerSource(durationMs int64, interval time.Duration) *TickerSource {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &TickerSource{
		durationMs: durationMs,
		interval:   interval,
		subs:       make(map[int]func(Sample)),
	}
}

// Subscribe implements Source.
func (t *TickerSource) Subscribe(fn func(Sample)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Play implements Controls.
func (t *TickerSource) Play() error {
	t.mu.Lock()
	t.playing = true
	t.mu.Unlock()
	return nil
}

// Pause implements Controls.
func (t *TickerSource) Pause() error {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
	return nil
}

// Seek implements Controls.
func (t *TickerSource) Seek(positionMs int64) error {
	t.mu.Lock()
	if positionMs < 0 {
		positionMs = 0
	}
	if positionMs > t.durationMs {
		positionMs = t.durationMs
	}
	t.positionMs = positionMs
	t.finished = false
	t.mu.Unlock()
	return nil
}

// Run advances the clock and emits samples until the context is canceled
// or the audio finishes. Blocking; run in a goroutine.
func (t *TickerSource) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := t.tick(); done {
				return
			}
		}
	}
}

// tick advances position by one interval and broadcasts a sample.
// Returns true once the finished sample has been delivered.
func (t *TickerSource) tick() bool {
	t.mu.Lock()
	if t.playing && !t.finished {
		t.positionMs += t.interval.Milliseconds()
		if t.positionMs >= t.durationMs {
			t.positionMs = t.durationMs
			t.finished = true
			t.playing = false
		}
	}
	sample := Sample{PositionMs: t.positionMs, Playing: t.playing, Finished: t.finished}
	fns := make([]func(Sample), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(sample)
	}
	return sample.Finished
}

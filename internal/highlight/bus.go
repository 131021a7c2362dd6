package highlight

import (
	"log/slog"
	"sync"

	"github.com/lectioapp/lectio-server/internal/timing"
)

// Listener receives highlight events. Any callback may be nil. Callbacks
// run on the goroutine delivering the triggering sample; keep them cheap
// and hand heavy work off to a channel.
type Listener struct {
	OnWordChange func(word *timing.WordBoundary, index int)
	OnComplete   func()
	OnError      func(err error)
}

type busEntry struct {
	id       int
	listener Listener
}

// Bus is the observer registry between a sync controller and its UI
// surfaces. Listeners are notified in registration order. A panicking
// listener is caught and logged; the remaining listeners still receive
// the event, and the controller is never taken down by its observers.
type Bus struct {
	mu      sync.Mutex
	entries []busEntry
	nextID  int
	logger  *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a listener and returns its unsubscribe function.
// The returned function removes exactly this listener and is idempotent.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.entries = append(b.entries, busEntry{id: id, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, e := range b.entries {
				if e.id == id {
					b.entries = append(b.entries[:i], b.entries[i+1:]...)
					break
				}
			}
		})
	}
}

// Reset drops every listener. Pending deliveries to dropped listeners are
// simply skipped, not queued.
func (b *Bus) Reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

// Count reports registered listeners.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// EmitWordChange delivers a word change to all listeners in order.
func (b *Bus) EmitWordChange(word *timing.WordBoundary, index int) {
	for _, l := range b.snapshot() {
		if l.OnWordChange != nil {
			b.deliver(func() { l.OnWordChange(word, index) })
		}
	}
}

// EmitComplete delivers the terminal completion event.
func (b *Bus) EmitComplete() {
	for _, l := range b.snapshot() {
		if l.OnComplete != nil {
			b.deliver(l.OnComplete)
		}
	}
}

// EmitError delivers the terminal error event.
func (b *Bus) EmitError(err error) {
	for _, l := range b.snapshot() {
		if l.OnError != nil {
			b.deliver(func() { l.OnError(err) })
		}
	}
}

// snapshot copies the listener list so delivery happens without holding
// the bus lock. Listeners may subscribe, unsubscribe, or stop the whole
// controller from inside a callback without deadlocking.
func (b *Bus) snapshot() []Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Listener, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.listener
	}
	return out
}

// deliver invokes one callback, isolating panics to that listener.
func (b *Bus) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("highlight listener panicked", "panic", r)
		}
	}()
	fn()
}

package highlight

import "sync"

// stateBox guards the controller state word. Transitions race between the
// sample feed goroutine and user-facing calls (Seek, Pause, Stop), so every
// conditional transition is a locked compare-and-set rather than a read
// followed by a write.
type stateBox struct {
	mu    sync.Mutex
	state State
}

func newStateBox() *stateBox {
	return &stateBox{state: StateIdle}
}

func (b *stateBox) get() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *stateBox) set(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// transition moves from exactly `from` to `to`, reporting whether it did.
func (b *stateBox) transition(from, to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return false
	}
	b.state = to
	return true
}

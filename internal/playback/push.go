package playback

import "sync"

// PushSource is an in-memory Source fed by explicit Push calls. The API
// position feed and the tests both drive controllers through it. Samples pushed
// with Push are delivered synchronously to all live subscribers.
type PushSource struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Sample)
}

// NewPushSource creates an empty fake feed.
func NewPushSource() *PushSource {
	return &PushSource{subs: make(map[int]func(Sample))}
}

// Subscribe implements Source.
func (f *PushSource) Subscribe(fn func(Sample)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Push delivers one sample to every subscriber.
func (f *PushSource) Push(s Sample) {
	f.mu.Lock()
	fns := make([]func(Sample), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// SubscriberCount reports live subscriptions, for leak assertions in tests.
func (f *PushSource) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

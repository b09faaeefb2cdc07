package broadcast

import (
	"sync"
)

// Broadcaster fans values out to subscriber channels. Publish never blocks: when a
// subscriber's buffer is full its oldest pending value is dropped so the newest one
// is always delivered.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	closed bool
}

// New creates an empty broadcaster
func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber with the given buffer size (minimum 1). The returned
// cancel func unregisters it and closes the channel; it is safe to call more than once.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers v to every subscriber
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// full: drop the oldest value and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Len returns the number of active subscribers
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel; later subscriptions receive a closed channel
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

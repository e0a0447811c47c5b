// Package eventbus provides a small in-process publish/subscribe bus used to
// surface iteration progress and bump activity to interested listeners.
package eventbus

import "sync"

// subscriberBuffer is the per-subscriber channel depth. A listener that falls
// further behind misses events rather than stalling the assignment loop.
const subscriberBuffer = 8

// TypedBus fans events of type T out to its subscribers. The zero value is
// not usable; construct with NewTyped.
type TypedBus[T any] struct {
	mu        sync.RWMutex
	listeners []chan T
	closed    bool
}

// NewTyped returns an open bus with no subscribers.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Subscribe registers a listener and returns its receive channel. Subscribing
// to a closed bus yields an already-closed channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

// Publish delivers e to every listener without blocking; listeners with a
// full buffer are skipped.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.listeners {
		select {
		case ch <- e:
		default:
		}
	}
}

// Unsubscribe removes the listener and closes its channel. Unknown channels
// and already-closed buses are tolerated.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.listeners {
		if ch != sub {
			continue
		}
		b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
		if !b.closed {
			close(ch)
		}
		return
	}
}

// Close shuts the bus down and closes every listener channel. Publishing
// after Close is a no-op.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}

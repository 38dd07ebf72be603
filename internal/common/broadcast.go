package common

import (
	"context"
	"sync"
)

// Broadcaster fans out the latest value of T to any number of subscribers.
// Each subscriber channel holds at most one pending value: a slow reader
// skips intermediate values but always observes the most recent one.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[chan T]struct{}
}

func NewBroadcaster[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{
		current: initial,
		subs:    make(map[chan T]struct{}),
	}
}

// Current returns the last published value.
func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe returns a channel that immediately holds the current value and
// then receives every later publish. The channel is closed when ctx is done.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	b.mu.Lock()
	ch <- b.current
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish replaces the current value and delivers it to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = v
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Only Publish sends and it holds the lock, so after the drain the
			// buffer has room.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Subscribers reports how many subscriptions are active.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

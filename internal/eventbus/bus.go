// Package eventbus is a small in-memory fanout used to decouple the notifier
// and scheduler from the app's operational logging.
package eventbus

import (
	"sync"
	"time"
)

// Event is a lightweight in-memory signal.
//
// Contract:
//   - Publish never blocks.
//   - Subscribers get buffered channels; a full buffer drops the event.
//
// Data should be small and ideally JSON-serializable.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a fanout bus. It owns no background goroutines.
func New() Bus {
	return &fanout{}
}

// subscriber guards its channel so Publish can never race an unsubscribe
// into a send on a closed channel.
type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *subscriber) push(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default: // slow subscriber, drop
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

type fanout struct {
	mu sync.RWMutex
	// Copied on every mutation so Publish can walk a snapshot lock-free.
	subs []*subscriber
}

func (b *fanout) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.push(e)
	}
}

func (b *fanout) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	b.mu.Lock()
	next := make([]*subscriber, 0, len(b.subs)+1)
	next = append(next, b.subs...)
	b.subs = append(next, sub)
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			next := make([]*subscriber, 0, len(b.subs))
			for _, s := range b.subs {
				if s != sub {
					next = append(next, s)
				}
			}
			b.subs = next
			b.mu.Unlock()
			sub.close()
		})
	}
	return sub.ch, unsub
}

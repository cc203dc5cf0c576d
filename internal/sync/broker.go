package sync

import (
	"sync"
)

// Event is a sync progress notification fanned out to watchers (SSE and
// WebSocket endpoints). Kind is the reconciler ("shipments", "documents",
// "invoices"); events are additionally published under "all".
type Event struct {
	Type string         `json:"type"`
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

type EventBroker interface {
	Subscribe(kind string) chan Event
	Unsubscribe(kind string, ch chan Event)
	Publish(kind string, evt Event)
}

// Broker is the in-process EventBroker used when no REDIS_URL is set.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // kind -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(kind string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[kind] == nil {
		b.subs[kind] = map[chan Event]struct{}{}
	}
	b.subs[kind][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(kind string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[kind]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, kind)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish drops events for slow subscribers rather than blocking a sync run.
func (b *Broker) Publish(kind string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[kind] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

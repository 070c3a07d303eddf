package api

import (
	"sync"

	"hookloop/internal/model"
)

// Broker fans captured events out to live viewer sessions, grouped by
// tenant. Delivery is best-effort and at-most-once per session: a full
// session channel drops the event rather than blocking the publisher.
type Broker struct {
	mu   sync.Mutex
	subs map[int64]map[chan model.Event]struct{} // tenantID -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[int64]map[chan model.Event]struct{}{}}
}

func (b *Broker) Subscribe(tenantID int64) chan model.Event {
	ch := make(chan model.Event, 8)
	b.mu.Lock()
	if b.subs[tenantID] == nil {
		b.subs[tenantID] = map[chan model.Event]struct{}{}
	}
	b.subs[tenantID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(tenantID int64, ch chan model.Event) {
	b.mu.Lock()
	m := b.subs[tenantID]
	if m == nil {
		b.mu.Unlock()
		return
	}
	if _, ok := m[ch]; !ok {
		b.mu.Unlock()
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, tenantID)
	}
	b.mu.Unlock()
	// close only after the channel was actually removed, so a repeated
	// call for the same channel is a no-op
	close(ch)
}

func (b *Broker) Publish(tenantID int64, evt model.Event) {
	b.mu.Lock()
	for ch := range b.subs[tenantID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

package strategy

import (
	"sync"

	"gannbot/internal/exchange"
)

// Mailbox — неограниченная FIFO-очередь событий стратегии.
// Писателей много (доставка фида), читатель один (горутина Runner).
type Mailbox struct {
	mu    sync.Mutex
	items []exchange.Event
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) Put(ev exchange.Event) {
	m.mu.Lock()
	m.items = append(m.items, ev)
	m.mu.Unlock()
}

func (m *Mailbox) Pop() (exchange.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return exchange.Event{}, false
	}
	ev := m.items[0]
	m.items = m.items[1:]
	return ev, true
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mailbox) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
}

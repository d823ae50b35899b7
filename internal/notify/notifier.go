// Package notify fans state-change events out to connected observers.
//
// Delivery is best-effort: Publish never blocks, slow observers drop
// events, and there is no replay. A newly connecting observer pulls
// current state through a snapshot query instead.
package notify

import (
	"sync"
	"time"
)

type EventType string

const (
	ScheduleSetChanged  EventType = "schedule-set-changed"
	FavoritesSetChanged EventType = "favorites-set-changed"
	ConnectivityChanged EventType = "connectivity-changed"
)

type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
}

func New() *Notifier {
	return &Notifier{subs: make(map[uint64]chan Event)}
}

// Subscribe registers an observer and returns its event channel plus an
// unsubscribe func. The channel is closed on unsubscribe.
func (n *Notifier) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			// Closing under the write lock means no Publish holds the
			// read lock mid-send on this channel.
			n.mu.Lock()
			delete(n.subs, id)
			close(ch)
			n.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every current observer without ever
// blocking the caller. An observer with a full buffer misses the event.
func (n *Notifier) Publish(eventType EventType, data any) {
	e := Event{Type: eventType, Time: time.Now().UTC(), Data: data}

	// Sends are non-blocking, so holding the read lock for the whole
	// fan-out is cheap and excludes a concurrent close.
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// ObserverCount reports how many observers are currently subscribed.
func (n *Notifier) ObserverCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

package favorites

import (
	"sync"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// Event is the tagged union delivered to subscribers. Payloads are deep
// copies; subscribers never see the authoritative document.
type Event interface {
	isEvent()
}

// StateChanged carries a snapshot of the document after a mutation or a
// remote overwrite.
type StateChanged struct {
	Document *models.StateDocument
}

// LiveDataChanged carries a snapshot of the live-status cache after a
// refresh pass (or after a favorite was removed).
type LiveDataChanged struct {
	Statuses map[string]models.LiveStatus
}

func (StateChanged) isEvent()    {}
func (LiveDataChanged) isEvent() {}

type broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

func newBroadcaster() *broadcaster {
	return &broadcaster{}
}

func (b *broadcaster) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.listeners = append(b.listeners, ch)
	return ch
}

func (b *broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *broadcaster) publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.listeners {
		select {
		case ch <- event:
		default:
		}
	}
}

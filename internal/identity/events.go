package identity

import (
	"sync"

	"docugen/api/internal/model"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event describes one auth-state transition. User is nil on sign-out.
type Event struct {
	Type EventType
	User *model.User
}

type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]func(Event))}
}

// subscribe registers cb and returns its disposer. Calling the disposer
// more than once is a no-op.
func (b *broadcaster) subscribe(cb func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = cb
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) emit(event Event) {
	b.mu.Lock()
	callbacks := make([]func(Event), 0, len(b.subs))
	for _, cb := range b.subs {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

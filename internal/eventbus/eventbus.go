package eventbus

import (
	"sync"
)

// EventType names one event category on the bus.
type EventType string

const (
	StoryCreated           EventType = "story.created"
	StoryApproved          EventType = "story.approved"
	StoryRejected          EventType = "story.rejected"
	StoryDeleted           EventType = "story.deleted"
	UserBlocked            EventType = "user.blocked"
	UserUnblocked          EventType = "user.unblocked"
	StorytellerBlocked     EventType = "storyteller.blocked"
	StorytellerUnblocked   EventType = "storyteller.unblocked"
	ModeratorAdded         EventType = "moderator.added"
	ModeratorRemoved       EventType = "moderator.removed"
	ProfileUpdated         EventType = "profile.updated"
	PasswordResetRequested EventType = "password.reset_requested"
)

// Event is one published notification.
type Event struct {
	Type    EventType
	Payload map[string]string
}

// Handler receives published events.
type Handler func(Event)

// Bus is an in-process publish/subscribe list. Delivery is at-most-once:
// Publish invokes the current subscribers of the event's category
// synchronously in registration order, and nothing is retained for
// subscribers registered later. No ordering is guaranteed across
// categories and nothing survives a restart.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

func New() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for one event category.
func (b *Bus) Subscribe(eventType EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// SubscribeAll registers a handler for every category.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to current subscribers. A handler that
// blocks stalls the publisher; handlers must not re-enter the bus while
// holding their own locks.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.all))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

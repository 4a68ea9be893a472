package main

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one realtime notification pushed to live sessions.
type Event struct {
	Type    string   `json:"type"` // "match_created" | "message_appended"
	Match   *Match   `json:"match,omitempty"`
	Message *Message `json:"message,omitempty"`

	recipients [2]int
}

const (
	EventMatchCreated    = "match_created"
	EventMessageAppended = "message_appended"
)

func matchCreatedEvent(m Match) Event {
	return Event{Type: EventMatchCreated, Match: &m, recipients: [2]int{m.UserA, m.UserB}}
}

func messageAppendedEvent(m Match, msg Message) Event {
	return Event{Type: EventMessageAppended, Match: &m, Message: &msg, recipients: [2]int{m.UserA, m.UserB}}
}

// session is one live subscriber (one device/tab of one user).
type session struct {
	id     string
	userID int
	events chan Event
}

// Events exposes the receive side of the session's stream.
func (s *session) Events() <-chan Event {
	return s.events
}

// Hub is the realtime broadcaster: a registry of live sessions keyed by
// user ID. A user may hold any number of concurrent sessions.
type Hub struct {
	sessionsByUser map[int]map[*session]bool
	mu             sync.Mutex
}

func newHub() *Hub {
	return &Hub{
		sessionsByUser: make(map[int]map[*session]bool),
	}
}

// sessionBuffer bounds how far a slow subscriber may lag before events
// are dropped for it.
const sessionBuffer = 16

// Subscribe registers a new live session for userID.
func (h *Hub) Subscribe(userID int) *session {
	s := &session{
		id:     uuid.NewString(),
		userID: userID,
		events: make(chan Event, sessionBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessionsByUser[userID] == nil {
		h.sessionsByUser[userID] = make(map[*session]bool)
	}
	h.sessionsByUser[userID][s] = true
	return s
}

// Unsubscribe removes the session and closes its stream. Safe to call
// more than once; events published afterwards are not delivered.
func (h *Hub) Unsubscribe(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.sessionsByUser[s.userID]
	if !ok || !peers[s] {
		return
	}
	delete(peers, s)
	if len(peers) == 0 {
		delete(h.sessionsByUser, s.userID)
	}
	close(s.events)
}

// Publish fans evt out to every live session of both participants and to
// nobody else. Delivery is best-effort, at-least-once from the client's
// point of view: a full session buffer drops the event for that session
// rather than stalling the publisher. Holding the hub lock for the whole
// fan-out keeps deliveries for the same match in publish order on every
// session.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := evt.recipients[0] == evt.recipients[1]
	for i, userID := range evt.recipients {
		if i == 1 && seen {
			break
		}
		for s := range h.sessionsByUser[userID] {
			select {
			case s.events <- evt:
			default:
				logger.Warn("dropping event for slow session",
					zap.String("session", s.id),
					zap.Int("user_id", userID),
					zap.String("event", evt.Type))
			}
		}
	}
}

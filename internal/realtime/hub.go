package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Topic names. A user topic carries one user's notification tray; a
// classroom topic carries the live view shared by its members.
func UserTopic(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func ClassroomTopic(classroomID int64) string {
	return fmt.Sprintf("classroom:%d", classroomID)
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to every live session subscribed to a topic.
// It is a convenience layer, never the system of record: with no
// subscribers an event is dropped, and a reconnecting client rebuilds
// state from the notification store.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Session]struct{}),
	}
}

// Publish broadcasts the event to the topic's current subscribers.
// Best-effort: a session whose send buffer is full misses the event.
// With a single publisher per topic, subscribers observe events in
// publish order.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal realtime event", "topic", topic, "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for session := range h.topics[topic] {
		select {
		case session.send <- data:
		default:
			slog.Warn("Dropping realtime event for slow session", "topic", topic, "event", event)
		}
	}
}

// Subscribe registers a new session on the given topics. The caller must
// Close the session when the connection goes away.
func (h *Hub) Subscribe(topics ...string) *Session {
	session := &Session{
		hub:    h,
		send:   make(chan []byte, 64),
		topics: topics,
	}

	h.mu.Lock()
	for _, topic := range topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Session]struct{})
		}
		h.topics[topic][session] = struct{}{}
	}
	h.mu.Unlock()

	return session
}

func (h *Hub) unsubscribe(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range session.topics {
		delete(h.topics[topic], session)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
	}
}

// SubscriberCount reports live sessions on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

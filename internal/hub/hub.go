package hub

import (
	"encoding/json"
	"sync"

	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/types"
)

// sendBuffer is each subscriber's queue depth. A subscriber that falls
// further behind starts losing events rather than stalling the hub.
const sendBuffer = 16

// Hub fans game events out to every connected stream subscriber. Each
// event is marshaled once and delivered to all subscribers; slow
// consumers get dropped frames, never backpressure.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan []byte
	nextID uint64
}

func New() *Hub {
	return &Hub{
		subs: make(map[uint64]chan []byte),
	}
}

// Subscribe registers a new consumer and returns its id and receive
// channel. The channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (uint64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan []byte, sendBuffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel. Unknown ids
// are a no-op, so callers can defer it unconditionally.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
}

// Publish delivers an event with a payload to every subscriber.
func (h *Hub) Publish(eventType string, payload any) {
	h.dispatch(types.Event{Type: eventType, Payload: payload})
}

// PublishError delivers an error event. Error events carry a message
// string instead of a payload.
func (h *Hub) PublishError(message string) {
	h.dispatch(types.Event{Type: "error", Message: message})
}

// dispatch sends under the read lock so Unsubscribe cannot close a
// channel mid-delivery.
func (h *Hub) dispatch(evt types.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logging.Errorf("hub: marshal %s event: %v", evt.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- data:
		default:
			logging.Warnf("hub: subscriber %d is behind, dropping %s event", id, evt.Type)
		}
	}
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

package realtime

import (
	"log"
	"sync"
)

// Subscriber receives published messages. Websocket clients implement it,
// tests plug in fakes so the hub never needs a real socket.
type Subscriber interface {
	Send(msg Message) error
}

// Hub is the per-process connection registry. It is injected into the
// services that publish, never a package global. Delivery is
// fire-and-forget: a failing subscriber is dropped, publishers are
// never blocked or rolled back.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[Subscriber]struct{}

	backplane Backplane
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Subscriber]struct{}),
	}
}

// Subscribe registers a subscriber on a channel.
func (h *Hub) Subscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[Subscriber]struct{})
	}
	h.channels[channel][sub] = struct{}{}
}

// Unsubscribe removes the subscriber from every channel it joined.
// Called on disconnect or read timeout.
func (h *Hub) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, subs := range h.channels {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Publish fans the message out to local subscribers and mirrors it to the
// backplane so hubs on other instances deliver it too.
func (h *Hub) Publish(channel string, msg Message) {
	h.publishLocal(channel, msg)
	if h.backplane != nil {
		if err := h.backplane.Forward(channel, msg); err != nil {
			log.Printf("backplane publish on %s failed: %v", channel, err)
		}
	}
}

func (h *Hub) publishLocal(channel string, msg Message) {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.channels[channel]))
	for sub := range h.channels[channel] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Send(msg); err != nil {
			log.Printf("dropping subscriber on %s: %v", channel, err)
			h.Unsubscribe(sub)
		}
	}
}

// SubscriberCount reports how many subscribers a channel currently has.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

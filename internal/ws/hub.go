package ws

import "sync"

// Hub fans committed-refresh signals out to subscribed clients. Topics are
// account channels and the shared pending-loans channel; the hub owns all
// subscription state so a client is just a connection and its outbox.
type Hub struct {
	mu       sync.RWMutex
	topics   map[string]map[*Client]struct{}
	byClient map[*Client]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics:   map[string]map[*Client]struct{}{},
		byClient: map[*Client]map[string]struct{}{},
	}
}

func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = map[*Client]struct{}{}
	}
	h.topics[topic][client] = struct{}{}
	if _, ok := h.byClient[client]; !ok {
		h.byClient[client] = map[string]struct{}{}
	}
	h.byClient[client][topic] = struct{}{}
}

func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.byClient[client] {
		subs, ok := h.topics[topic]
		if !ok {
			continue
		}
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(h.byClient, client)
}

func (h *Hub) Publish(topic string, payload []byte) {
	h.mu.RLock()
	subs := h.topics[topic]
	h.mu.RUnlock()

	for client := range subs {
		client.send(payload)
	}
}

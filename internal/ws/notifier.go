package ws

import "encoding/json"

const pendingLoansChannel = "loans:pending"

func accountChannel(address string) string {
	return "account:" + address
}

// Notifier pushes change signals after committed refreshes. Payloads carry
// no snapshot data; subscribers re-fetch through the HTTP surface.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) AccountRefreshed(address string) {
	payload, _ := json.Marshal(map[string]any{
		"event": "account_refreshed",
		"data":  map[string]any{"address": address},
	})
	n.hub.Publish(accountChannel(address), payload)
}

func (n *Notifier) PendingLoansChanged() {
	payload, _ := json.Marshal(map[string]any{
		"event": "pending_loans_changed",
	})
	n.hub.Publish(pendingLoansChannel, payload)
}

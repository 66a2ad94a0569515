package ws

import (
	"testing"
	"time"
)

func TestHubSubscribeAndPublish(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil)

	hub.Subscribe("account:0xabc", client)
	hub.Publish("account:0xabc", []byte(`{"event":"account_refreshed"}`))

	select {
	case msg := <-client.out:
		if string(msg) != `{"event":"account_refreshed"}` {
			t.Fatalf("unexpected payload: %s", string(msg))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for message")
	}

	hub.UnsubscribeAll(client)
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil)
	hub.Subscribe("account:0xabc", client)

	client.Close()
	// A publish racing a disconnect must not touch the closed outbox.
	hub.Publish("account:0xabc", []byte(`{"event":"account_refreshed"}`))

	if _, ok := <-client.out; ok {
		t.Fatalf("expected closed outbox without payload")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient(nil)
	client.Close()
	client.Close()
}

func TestNotifierPublishesToAccountChannel(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil)
	hub.Subscribe("account:0xdef", client)

	NewNotifier(hub).AccountRefreshed("0xdef")

	select {
	case msg := <-client.out:
		if string(msg) == "" {
			t.Fatalf("expected payload")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for message")
	}
}

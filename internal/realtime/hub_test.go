package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatalf("client %s channel closed", c.ID)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s got nothing", c.ID)
	}
	return nil
}

func silent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("client %s should not get %s", c.ID, msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliverRoutesByAudience(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	admin := &Client{ID: "1", UserName: "Admin", Admin: true, Send: make(chan []byte, 4)}
	owner := &Client{ID: "2", UserName: "Toko A", Send: make(chan []byte, 4)}
	other := &Client{ID: "3", UserName: "Toko B", Send: make(chan []byte, 4)}
	for _, c := range []*Client{admin, owner, other} {
		hub.RegisterClient(c)
	}
	waitCount(t, hub, 3)

	pub := &HubPublisher{Hub: hub}
	reviewed := models.Event{Type: models.EventRegistrationReviewed, AnnouncementID: "a1", RegistrationID: "r1", SupplierName: "Toko A", Status: "approved"}
	if err := pub.Publish(ctx, reviewed); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, c := range []*Client{admin, owner} {
		var got models.Event
		if err := json.Unmarshal(receive(t, c), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != reviewed.Type || got.RegistrationID != "r1" {
			t.Fatalf("unexpected event %+v", got)
		}
	}
	silent(t, other)

	saved := models.Event{Type: models.EventAnnouncementSaved, AnnouncementID: "a1"}
	hub.Deliver(saved)
	for _, c := range []*Client{admin, owner, other} {
		var got models.Event
		if err := json.Unmarshal(receive(t, c), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != saved.Type {
			t.Fatalf("unexpected event %+v", got)
		}
	}
}

func waitCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubUnregisterAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	a := &Client{ID: "1", UserName: "Toko A", Send: make(chan []byte, 4)}
	b := &Client{ID: "2", UserName: "Toko B", Send: make(chan []byte, 4)}
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	waitCount(t, hub, 2)

	hub.UnregisterClient(a)
	if _, ok := <-a.Send; ok {
		t.Fatalf("expected channel closed after unregister")
	}
	waitCount(t, hub, 1)

	ev := models.Event{Type: models.EventAnnouncementSaved, AnnouncementID: "a1"}
	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-b.Send:
			if !ok {
				// Calls after shutdown must not block.
				hub.UnregisterClient(b)
				hub.Deliver(ev)
				return
			}
		case <-deadline:
			t.Fatalf("hub did not close clients on shutdown")
		}
	}
}

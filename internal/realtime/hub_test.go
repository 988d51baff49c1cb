package realtime

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func drain(c *Client) []Event {
	var out []Event
	for {
		select {
		case ev := <-c.Outbound:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBroadcastReachesSubscribersOnly(t *testing.T) {
	hub := testHub(t)
	channel := SessionChannel(uuid.New())

	sub := hub.NewClient(uuid.New())
	other := hub.NewClient(uuid.New())
	hub.Subscribe(sub, channel)
	hub.Subscribe(other, "chats/"+uuid.New().String())

	hub.Broadcast(Event{Channel: channel, Kind: EventMessageCreated})

	if got := drain(sub); len(got) != 1 || got[0].Kind != EventMessageCreated {
		t.Fatalf("subscriber got %+v, want one MessageCreated", got)
	}
	if got := drain(other); len(got) != 0 {
		t.Fatalf("non-subscriber got %d events", len(got))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := testHub(t)
	channel := SessionChannel(uuid.New())

	sub := hub.NewClient(uuid.New())
	hub.Subscribe(sub, channel)
	hub.Unsubscribe(sub, channel)

	hub.Broadcast(Event{Channel: channel, Kind: EventMessageCreated})
	if got := drain(sub); len(got) != 0 {
		t.Fatalf("unsubscribed client got %d events", len(got))
	}
}

func TestBroadcastNeverBlocksOnSlowClient(t *testing.T) {
	hub := testHub(t)
	channel := SessionChannel(uuid.New())

	slow := hub.NewClient(uuid.New())
	hub.Subscribe(slow, channel)

	// Overfill the buffer; the extra events drop instead of blocking.
	for i := 0; i < cap(slow.Outbound)+10; i++ {
		hub.Broadcast(Event{Channel: channel, Kind: EventMessageCreated})
	}
	if got := drain(slow); len(got) != cap(slow.Outbound) {
		t.Fatalf("buffered = %d, want %d", len(got), cap(slow.Outbound))
	}
}

func TestRemoveClientCleansSubscriptions(t *testing.T) {
	hub := testHub(t)
	channel := SessionChannel(uuid.New())

	sub := hub.NewClient(uuid.New())
	hub.Subscribe(sub, channel)
	hub.RemoveClient(sub)

	hub.Broadcast(Event{Channel: channel, Kind: EventMessageUpdated})
	if got := drain(sub); len(got) != 0 {
		t.Fatalf("removed client got %d events", len(got))
	}
	if len(hub.subscriptions) != 0 {
		t.Fatalf("subscriptions map not cleaned: %d entries", len(hub.subscriptions))
	}
}

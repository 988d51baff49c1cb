package services

import (
	"context"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
	"github.com/ostrakov/socialmesh-backend/internal/realtime/bus"
)

// Broadcaster pushes an event toward connected clients. It is best effort:
// delivery failures are logged, never surfaced to the write path that
// triggered them.
type Broadcaster interface {
	Publish(ctx context.Context, ev realtime.Event)
}

// HubBroadcaster delivers straight to the in-process hub. Single-instance
// deployments use this.
type HubBroadcaster struct {
	Hub *realtime.Hub
}

func (b *HubBroadcaster) Publish(ctx context.Context, ev realtime.Event) {
	b.Hub.Broadcast(ev)
}

// BusBroadcaster publishes through the shared bus; every instance's
// forwarder, this one included, feeds its hub from there.
type BusBroadcaster struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (b *BusBroadcaster) Publish(ctx context.Context, ev realtime.Event) {
	if err := b.Bus.Publish(ctx, ev); err != nil {
		b.Log.Warn("publish event to bus", "channel", ev.Channel, "error", err)
	}
}

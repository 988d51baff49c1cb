package bus

import (
	"context"

	"github.com/ostrakov/socialmesh-backend/internal/realtime"
)

// Bus relays events between instances so every hub sees every broadcast.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error
	Close() error
}

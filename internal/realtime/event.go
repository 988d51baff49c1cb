package realtime

import "github.com/google/uuid"

type EventKind string

const (
	EventMessageCreated EventKind = "MessageCreated"
	EventMessageUpdated EventKind = "MessageUpdated"
	EventMessageDeleted EventKind = "MessageDeleted"
)

// Event is one push on a channel. Data is whatever the producer attached,
// typically the created message.
type Event struct {
	Channel string    `json:"channel"`
	Kind    EventKind `json:"event"`
	Data    any       `json:"data,omitempty"`
}

// SessionChannel names the outbound channel for one chat session. Every
// subscriber of a session listens here and every accepted inbound publish for
// the session lands here exactly once.
func SessionChannel(sessionID uuid.UUID) string {
	return "chats/" + sessionID.String()
}

package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message delivery states, persisted by name. Transitions only move forward:
// SENT -> DELIVERED -> READ.
const (
	StatusSent      = "SENT"
	StatusDelivered = "DELIVERED"
	StatusRead      = "READ"
)

var statusRank = map[string]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// ValidStatus reports whether s names a known delivery state.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusesBelow returns every state earlier in the ladder than target. Bulk
// status updates only touch rows in these states, which is what keeps the
// machine monotonic.
func StatusesBelow(target string) []string {
	rank, ok := statusRank[target]
	if !ok {
		return nil
	}
	out := make([]string, 0, rank)
	for s, r := range statusRank {
		if r < rank {
			out = append(out, s)
		}
	}
	return out
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`

	Content        string `gorm:"type:text;not null;column:content" json:"content"`
	Attachment     []byte `gorm:"column:attachment" json:"attachment,omitempty"`
	AttachmentKind string `gorm:"column:attachment_kind" json:"attachment_kind,omitempty"`

	Status string `gorm:"not null;index;column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Message) TableName() string { return "chat_message" }

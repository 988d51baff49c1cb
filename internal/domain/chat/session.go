package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatSession is a conversation between two or more users. Membership lives in
// ChatSessionMember rows; the session never embeds user records.
type ChatSession struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// PairKey is set only for two-member sessions: the sorted member ids
	// joined with ":". The unique index on it is what makes direct-session
	// creation idempotent under concurrency.
	PairKey *string `gorm:"uniqueIndex;column:pair_key" json:"-"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_session" }

type ChatSessionMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_chat_member_session_user,unique" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;index:idx_chat_member_session_user,unique" json:"user_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ChatSessionMember) TableName() string { return "chat_session_member" }

// PairKeyFor builds the canonical dedup key for a direct session. The two ids
// are ordered so {a,b} and {b,a} collapse to the same key.
func PairKeyFor(a, b uuid.UUID) string {
	if a.String() > b.String() {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s", a, b)
}

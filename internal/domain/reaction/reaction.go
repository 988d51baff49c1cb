package reaction

import (
	"time"

	"github.com/google/uuid"
)

// Reaction types, persisted by name.
const (
	TypeLike  = "LIKE"
	TypeLove  = "LOVE"
	TypeHaha  = "HAHA"
	TypeWow   = "WOW"
	TypeSad   = "SAD"
	TypeAngry = "ANGRY"
)

var knownTypes = map[string]bool{
	TypeLike:  true,
	TypeLove:  true,
	TypeHaha:  true,
	TypeWow:   true,
	TypeSad:   true,
	TypeAngry: true,
}

func ValidType(t string) bool { return knownTypes[t] }

// Reaction is one user's reaction to one target. The same struct backs both
// the post-targeted and comment-targeted ledgers; the table is chosen by the
// repo instance. At most one row exists per (user_id, target_id) per table,
// enforced by a unique index created in the migration.
type Reaction struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	TargetID uuid.UUID `gorm:"type:uuid;not null" json:"target_id"`
	Type     string    `gorm:"not null;column:reaction_type" json:"type"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Table names for the two ledger instances.
const (
	PostTable    = "post_reaction"
	CommentTable = "comment_reaction"
)

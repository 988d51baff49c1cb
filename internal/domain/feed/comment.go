package feed

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID   uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Content  string    `gorm:"type:text;not null;column:content" json:"content"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Comment) TableName() string { return "comment" }

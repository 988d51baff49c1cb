package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, row *types.Message) (*types.Message, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Message, error)
	UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) error
	AdvanceStatusBulk(dbc dbctx.Context, sessionID, excludeSender uuid.UUID, target string) (int64, error)
	CountUnread(dbc dbctx.Context, sessionID, forUserID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *messageRepo) Create(dbc dbctx.Context, row *types.Message) (*types.Message, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = chat.StatusSent
	}
	if err := r.handle(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *messageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error) {
	var out types.Message
	if err := r.handle(dbc).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Message, error) {
	var out []*types.Message
	if err := r.handle(dbc).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateContent mutates content only; status and created_at are untouched.
func (r *messageRepo) UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error {
	return r.handle(dbc).
		Model(&types.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *messageRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Where("id = ?", id).Delete(&types.Message{}).Error
}

func (r *messageRepo) DeleteBySession(dbc dbctx.Context, sessionID uuid.UUID) error {
	return r.handle(dbc).Where("session_id = ?", sessionID).Delete(&types.Message{}).Error
}

// AdvanceStatusBulk moves every message in the session not sent by
// excludeSender forward to target. Only rows in an earlier state are touched,
// so a READ message can never fall back to DELIVERED or SENT.
func (r *messageRepo) AdvanceStatusBulk(dbc dbctx.Context, sessionID, excludeSender uuid.UUID, target string) (int64, error) {
	below := chat.StatusesBelow(target)
	if len(below) == 0 {
		return 0, nil
	}
	res := r.handle(dbc).
		Model(&types.Message{}).
		Where("session_id = ? AND sender_id <> ? AND status IN ?", sessionID, excludeSender, below).
		Updates(map[string]interface{}{
			"status":     target,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// CountUnread recomputes from stored rows on every call; nothing is cached.
func (r *messageRepo) CountUnread(dbc dbctx.Context, sessionID, forUserID uuid.UUID) (int64, error) {
	var n int64
	if err := r.handle(dbc).
		Model(&types.Message{}).
		Where("session_id = ? AND sender_id <> ? AND status <> ?", sessionID, forUserID, chat.StatusRead).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

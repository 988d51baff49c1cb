package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, session *types.ChatSession, memberIDs []uuid.UUID) (*types.ChatSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error)
	GetByPairKey(dbc dbctx.Context, pairKey string) (*types.ChatSession, error)
	ListByMember(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChatSession, error)
	MemberIDs(dbc dbctx.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
	IsMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (bool, error)
	AddMember(dbc dbctx.Context, sessionID, userID uuid.UUID) error
	RemoveMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (bool, error)
	CountMembers(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
	SetPairKey(dbc dbctx.Context, sessionID uuid.UUID, pairKey *string) error
	Delete(dbc dbctx.Context, sessionID uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: log.With("repo", "ChatSessionRepo")}
}

func (r *sessionRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *sessionRepo) Create(dbc dbctx.Context, session *types.ChatSession, memberIDs []uuid.UUID) (*types.ChatSession, error) {
	h := r.handle(dbc)
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if err := h.Create(session).Error; err != nil {
		return nil, err
	}
	for _, userID := range memberIDs {
		row := &types.ChatSessionMember{
			ID:        uuid.New(),
			SessionID: session.ID,
			UserID:    userID,
		}
		if err := h.Create(row).Error; err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error) {
	var out types.ChatSession
	if err := r.handle(dbc).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) GetByPairKey(dbc dbctx.Context, pairKey string) (*types.ChatSession, error) {
	var out types.ChatSession
	if err := r.handle(dbc).Where("pair_key = ?", pairKey).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByMember(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChatSession, error) {
	var out []*types.ChatSession
	if err := r.handle(dbc).
		Joins("JOIN chat_session_member m ON m.session_id = chat_session.id").
		Where("m.user_id = ?", userID).
		Order("chat_session.created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) MemberIDs(dbc dbctx.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if err := r.handle(dbc).
		Model(&types.ChatSessionMember{}).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) IsMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (bool, error) {
	var n int64
	if err := r.handle(dbc).
		Model(&types.ChatSessionMember{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddMember is idempotent: re-adding an existing member is a no-op, enforced
// by the unique (session_id, user_id) index.
func (r *sessionRepo) AddMember(dbc dbctx.Context, sessionID, userID uuid.UUID) error {
	row := &types.ChatSessionMember{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
	}
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *sessionRepo) RemoveMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (bool, error) {
	res := r.handle(dbc).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&types.ChatSessionMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) CountMembers(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	if err := r.handle(dbc).
		Model(&types.ChatSessionMember{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// SetPairKey maintains the direct-session dedup key as membership changes: nil
// clears it for group sessions, a value re-arms dedup when a session shrinks
// back to two members.
func (r *sessionRepo) SetPairKey(dbc dbctx.Context, sessionID uuid.UUID, pairKey *string) error {
	return r.handle(dbc).
		Model(&types.ChatSession{}).
		Where("id = ?", sessionID).
		Update("pair_key", pairKey).Error
}

func (r *sessionRepo) Delete(dbc dbctx.Context, sessionID uuid.UUID) error {
	h := r.handle(dbc)
	if err := h.Where("session_id = ?", sessionID).Delete(&types.ChatSessionMember{}).Error; err != nil {
		return err
	}
	return h.Where("id = ?", sessionID).Delete(&types.ChatSession{}).Error
}

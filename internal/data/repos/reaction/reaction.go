package reaction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

// ReactionRepo is one reaction ledger's store. The same implementation backs
// the post-targeted and comment-targeted ledgers; NewReactionRepo binds it to
// a table.
type ReactionRepo interface {
	Upsert(dbc dbctx.Context, row *types.Reaction) (*types.Reaction, error)
	GetByUserAndTarget(dbc dbctx.Context, userID, targetID uuid.UUID) (*types.Reaction, error)
	DeleteByUserAndTarget(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error)
	ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Reaction, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Reaction, error)
	CountByTarget(dbc dbctx.Context, targetID uuid.UUID, reactionType string) (int64, error)
	DeleteByTargets(dbc dbctx.Context, targetIDs []uuid.UUID) error
}

type reactionRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	table string
}

func NewReactionRepo(db *gorm.DB, log *logger.Logger, table string) ReactionRepo {
	return &reactionRepo{db: db, log: log.With("repo", "ReactionRepo", "table", table), table: table}
}

func (r *reactionRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Table(r.table)
}

// Upsert is the ledger's atomic read-check-write boundary: the unique
// (user_id, target_id) index plus ON CONFLICT DO UPDATE means two racing
// upserts serialize in the database, the loser becoming an update of the
// winner's row. The stored row (winner's id) is re-read and returned.
func (r *reactionRepo) Upsert(dbc dbctx.Context, row *types.Reaction) (*types.Reaction, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if err := r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"reaction_type": row.Type,
				"updated_at":    now,
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserAndTarget(dbc, row.UserID, row.TargetID)
}

func (r *reactionRepo) GetByUserAndTarget(dbc dbctx.Context, userID, targetID uuid.UUID) (*types.Reaction, error) {
	var out types.Reaction
	if err := r.handle(dbc).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteByUserAndTarget removes by the (user, target) key, never by row id.
func (r *reactionRepo) DeleteByUserAndTarget(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error) {
	res := r.handle(dbc).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&types.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepo) ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Reaction, error) {
	var out []*types.Reaction
	if err := r.handle(dbc).
		Where("target_id = ?", targetID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reactionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Reaction, error) {
	var out []*types.Reaction
	if err := r.handle(dbc).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reactionRepo) CountByTarget(dbc dbctx.Context, targetID uuid.UUID, reactionType string) (int64, error) {
	q := r.handle(dbc).Where("target_id = ?", targetID)
	if reactionType != "" {
		q = q.Where("reaction_type = ?", reactionType)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *reactionRepo) DeleteByTargets(dbc dbctx.Context, targetIDs []uuid.UUID) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return r.handle(dbc).Where("target_id IN ?", targetIDs).Delete(&types.Reaction{}).Error
}

package feed

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type CommentRepo interface {
	Create(dbc dbctx.Context, row *types.Comment) (*types.Comment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error)
	ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByPost(dbc dbctx.Context, postID uuid.UUID) error
	IDsByPost(dbc dbctx.Context, postID uuid.UUID) ([]uuid.UUID, error)
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, log *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: log.With("repo", "CommentRepo")}
}

func (r *commentRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *commentRepo) Create(dbc dbctx.Context, row *types.Comment) (*types.Comment, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.handle(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *commentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	var out types.Comment
	if err := r.handle(dbc).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *commentRepo) ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error) {
	var out []*types.Comment
	if err := r.handle(dbc).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.Comment{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *commentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Where("id = ?", id).Delete(&types.Comment{}).Error
}

func (r *commentRepo) DeleteByPost(dbc dbctx.Context, postID uuid.UUID) error {
	return r.handle(dbc).Where("post_id = ?", postID).Delete(&types.Comment{}).Error
}

func (r *commentRepo) IDsByPost(dbc dbctx.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if err := r.handle(dbc).
		Model(&types.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

package feed

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type PostRepo interface {
	Create(dbc dbctx.Context, row *types.Post) (*types.Post, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error)
	List(dbc dbctx.Context, limit int) ([]*types.Post, error)
	ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, log *logger.Logger) PostRepo {
	return &postRepo{db: db, log: log.With("repo", "PostRepo")}
}

func (r *postRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *postRepo) Create(dbc dbctx.Context, row *types.Post) (*types.Post, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.handle(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error) {
	var out types.Post
	if err := r.handle(dbc).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postRepo) List(dbc dbctx.Context, limit int) ([]*types.Post, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Post
	if err := r.handle(dbc).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Where("id = ?", id).Delete(&types.Post{}).Error
}

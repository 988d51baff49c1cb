package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, rows []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByEmailOrUsername(dbc dbctx.Context, identifier string) (*types.User, error)
	ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return &userRepo{db: db, log: log.With("repo", "UserRepo")}
}

func (r *userRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, rows []*types.User) ([]*types.User, error) {
	if len(rows) == 0 {
		return []*types.User{}, nil
	}
	if err := r.handle(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := r.handle(dbc).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	if len(ids) == 0 {
		return []*types.User{}, nil
	}
	var out []*types.User
	if err := r.handle(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByEmailOrUsername(dbc dbctx.Context, identifier string) (*types.User, error) {
	var out types.User
	if err := r.handle(dbc).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) ExistsByID(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	var n int64
	if err := r.handle(dbc).Model(&types.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

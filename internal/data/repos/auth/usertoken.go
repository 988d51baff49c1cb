package auth

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, row *types.UserToken) (*types.UserToken, error)
	GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserToken, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: log.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *userTokenRepo) Create(dbc dbctx.Context, row *types.UserToken) (*types.UserToken, error) {
	if err := r.handle(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userTokenRepo) GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	var out types.UserToken
	if err := r.handle(dbc).Where("access_token = ?", accessToken).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	var out types.UserToken
	if err := r.handle(dbc).Where("refresh_token = ?", refreshToken).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userTokenRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserToken, error) {
	var out []*types.UserToken
	if err := r.handle(dbc).Where("user_id = ?", userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userTokenRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).Where("id = ?", id).Delete(&types.UserToken{}).Error
}

package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/user"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type UserService interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetMany(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users userrepo.UserRepo
}

func NewUserService(baseLog *logger.Logger, users userrepo.UserRepo) UserService {
	return &userService{
		log:   baseLog.With("service", "UserService"),
		users: users,
	}
}

func (s *userService) Get(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	row, err := s.users.GetByID(dbc, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	return row, nil
}

func (s *userService) GetMany(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	rows, err := s.users.GetByIDs(dbc, userIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load users", err)
	}
	return rows, nil
}

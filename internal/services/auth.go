package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/auth"
	userrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/user"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

const minSecretLen = 32

type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type AuthService interface {
	Register(dbc dbctx.Context, in RegisterInput) (*types.User, error)
	Login(dbc dbctx.Context, identifier, password string) (*types.User, *TokenPair, error)
	Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error)
	Logout(dbc dbctx.Context, accessToken string) error

	// IssueToken signs a short-lived HS256 access token carrying the user id
	// as subject and the role as a custom claim.
	IssueToken(user *types.User) (string, time.Time, error)

	// VerifyToken validates signature and lifetime and returns the caller
	// identity. All failures come back as Unauthenticated.
	VerifyToken(tokenString string) (ctxutil.Identity, error)

	// AuthorizeOwner permits the resource owner and any admin; everyone else
	// gets Forbidden.
	AuthorizeOwner(id ctxutil.Identity, ownerID uuid.UUID) error
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      userrepo.UserRepo
	tokens     authrepo.UserTokenRepo
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users userrepo.UserRepo,
	tokens authrepo.UserTokenRepo,
	secret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	log := baseLog.With("service", "AuthService")
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLen {
		log.Warn("JWT secret missing or too short, using an ephemeral random key; tokens will not survive restarts",
			"min_len", minSecretLen)
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = hex.EncodeToString(buf)
	}
	return &authService{
		db:         db,
		log:        log,
		users:      users,
		tokens:     tokens,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) Register(dbc dbctx.Context, in RegisterInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" {
		return nil, apperr.New(apperr.Validation, "email and username are required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.New(apperr.Validation, "password must be at least 8 characters")
	}

	if taken, err := s.users.EmailExists(dbc, email); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "check email", err)
	} else if taken {
		return nil, apperr.New(apperr.Conflict, "email already registered")
	}
	if taken, err := s.users.UsernameExists(dbc, username); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "check username", err)
	} else if taken {
		return nil, apperr.New(apperr.Conflict, "username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	row := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Username: username,
		FullName: strings.TrimSpace(in.FullName),
		Password: string(hash),
		Role:     types.RoleUser,
	}
	created, err := s.users.Create(dbc, []*types.User{row})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create user", err)
	}
	s.log.Info("user registered", "user_id", row.ID, "username", username)
	return created[0], nil
}

func (s *authService) Login(dbc dbctx.Context, identifier, password string) (*types.User, *TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, apperr.New(apperr.Validation, "identifier and password are required")
	}

	user, err := s.users.GetByEmailOrUsername(dbc, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.Unauthenticated, "invalid credentials")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperr.New(apperr.Unauthenticated, "invalid credentials")
	}

	var pair *TokenPair
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)

		// One live session per user: stale rows are swept on login.
		existing, err := s.tokens.GetByUserID(repoCtx, user.ID)
		if err != nil {
			return err
		}
		for _, t := range existing {
			if t.ExpiresAt.Before(time.Now()) {
				if err := s.tokens.Delete(repoCtx, t.ID); err != nil {
					return err
				}
			}
		}

		p, err := s.issuePair(repoCtx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if txErr != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, "login", txErr)
	}
	return user, pair, nil
}

func (s *authService) Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.New(apperr.Validation, "refresh token is required")
	}

	var pair *TokenPair
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)

		existing, err := s.tokens.GetByRefreshToken(repoCtx, refreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.Unauthenticated, "unknown refresh token")
			}
			return err
		}
		if existing.ExpiresAt.Before(time.Now()) {
			_ = s.tokens.Delete(repoCtx, existing.ID)
			return apperr.New(apperr.Unauthenticated, "refresh token expired")
		}

		user, err := s.users.GetByID(repoCtx, existing.UserID)
		if err != nil {
			return apperr.Wrap(apperr.Unauthenticated, "refresh token has no user", err)
		}

		p, err := s.issuePair(repoCtx, user)
		if err != nil {
			return err
		}
		if err := s.tokens.Delete(repoCtx, existing.ID); err != nil {
			return err
		}
		pair = p
		return nil
	})
	if txErr != nil {
		if apperr.KindOf(txErr) != apperr.Internal {
			return nil, txErr
		}
		return nil, apperr.Wrap(apperr.Internal, "refresh", txErr)
	}
	return pair, nil
}

// Logout is idempotent: an unknown access token is already logged out.
func (s *authService) Logout(dbc dbctx.Context, accessToken string) error {
	row, err := s.tokens.GetByAccessToken(dbc, accessToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperr.Wrap(apperr.Internal, "load token", err)
	}
	if err := s.tokens.Delete(dbc, row.ID); err != nil {
		return apperr.Wrap(apperr.Internal, "delete token", err)
	}
	return nil
}

func (s *authService) issuePair(repoCtx dbctx.Context, user *types.User) (*TokenPair, error) {
	access, _, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	refresh := uuid.New().String()
	expiresAt := time.Now().Add(s.refreshTTL)
	if _, err := s.tokens.Create(repoCtx, &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *authService) IssueToken(user *types.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return signed, expiresAt, nil
}

func (s *authService) VerifyToken(tokenString string) (ctxutil.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return ctxutil.Identity{}, apperr.New(apperr.Unauthenticated, "missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ctxutil.Identity{}, apperr.Wrap(apperr.Unauthenticated, "token expired", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ctxutil.Identity{}, apperr.Wrap(apperr.Unauthenticated, "malformed token", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ctxutil.Identity{}, apperr.Wrap(apperr.Unauthenticated, "invalid token signature", err)
		default:
			return ctxutil.Identity{}, apperr.Wrap(apperr.Unauthenticated, "invalid token", err)
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ctxutil.Identity{}, apperr.New(apperr.Unauthenticated, "invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctxutil.Identity{}, apperr.Wrap(apperr.Unauthenticated, "invalid subject", err)
	}
	return ctxutil.Identity{UserID: userID, Role: claims.Role}, nil
}

func (s *authService) AuthorizeOwner(id ctxutil.Identity, ownerID uuid.UUID) error {
	if id.UserID == uuid.Nil {
		return apperr.New(apperr.Unauthenticated, "not authenticated")
	}
	if id.Role == types.RoleAdmin {
		return nil
	}
	if id.UserID != ownerID {
		return apperr.New(apperr.Forbidden, "not the owner")
	}
	return nil
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/data/repos/testutil"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	user := env.createUser(t, "alice")
	if user.Role != types.RoleUser {
		t.Fatalf("new user role = %q, want %q", user.Role, types.RoleUser)
	}
	if user.Password == "password123" {
		t.Fatal("password stored in plaintext")
	}

	// Login works with either username or email.
	for _, identifier := range []string{"alice", "alice@example.com"} {
		got, pair, err := env.auth.Login(env.dbc(), identifier, "password123")
		if err != nil {
			t.Fatalf("login with %q: %v", identifier, err)
		}
		if got.ID != user.ID {
			t.Fatalf("login returned wrong user")
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatal("login returned empty tokens")
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"wrong_password", "alice", "not-the-password"},
		{"unknown_user", "nobody", "password123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.auth.Login(env.dbc(), tc.identifier, tc.password)
			if !apperr.IsKind(err, apperr.Unauthenticated) {
				t.Fatalf("err = %v, want Unauthenticated", err)
			}
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	_, err := env.auth.Register(env.dbc(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "password123",
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("duplicate email err = %v, want Conflict", err)
	}

	_, err = env.auth.Register(env.dbc(), RegisterInput{
		Email:    "other@example.com",
		Username: "alice",
		Password: "password123",
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("duplicate username err = %v, want Conflict", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	signed, _, err := env.auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	id, err := env.auth.VerifyToken(signed)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if id.UserID != user.ID {
		t.Fatalf("verified subject = %s, want %s", id.UserID, user.ID)
	}
	if id.Role != types.RoleUser {
		t.Fatalf("verified role = %q, want %q", id.Role, types.RoleUser)
	}
}

func TestVerifyTokenFailures(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	// Signed with a different key.
	other := NewAuthService(env.db, testutil.Logger(t), nil, nil, "another-secret-key-0123456789abcdef", time.Hour, time.Hour)
	foreign, _, err := other.IssueToken(user)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	// Expired on arrival.
	expiredSvc := NewAuthService(env.db, testutil.Logger(t), nil, nil, "unit-test-secret-key-0123456789abcdef", -time.Minute, time.Hour)
	expired, _, err := expiredSvc.IssueToken(user)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong_key", foreign},
		{"expired", expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.auth.VerifyToken(tc.token); !apperr.IsKind(err, apperr.Unauthenticated) {
				t.Fatalf("err = %v, want Unauthenticated", err)
			}
		})
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	_, pair, err := env.auth.Login(env.dbc(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := env.auth.Refresh(env.dbc(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old refresh token is dead after rotation.
	if _, err := env.auth.Refresh(env.dbc(), pair.RefreshToken); !apperr.IsKind(err, apperr.Unauthenticated) {
		t.Fatalf("stale refresh err = %v, want Unauthenticated", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	_, pair, err := env.auth.Login(env.dbc(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.auth.Logout(env.dbc(), pair.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := env.auth.Logout(env.dbc(), pair.AccessToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestAuthorizeOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")

	if err := env.auth.AuthorizeOwner(asIdentity(owner), owner.ID); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if err := env.auth.AuthorizeOwner(asIdentity(other), owner.ID); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("non-owner err = %v, want Forbidden", err)
	}

	admin := ctxutil.Identity{UserID: other.ID, Role: types.RoleAdmin}
	if err := env.auth.AuthorizeOwner(admin, owner.ID); err != nil {
		t.Fatalf("admin denied: %v", err)
	}

	anon := ctxutil.Identity{UserID: uuid.Nil}
	if err := env.auth.AuthorizeOwner(anon, owner.ID); !apperr.IsKind(err, apperr.Unauthenticated) {
		t.Fatalf("anonymous err = %v, want Unauthenticated", err)
	}
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	authrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/auth"
	chatrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/chat"
	feedrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/feed"
	reactionrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/reaction"
	"github.com/ostrakov/socialmesh-backend/internal/data/repos/testutil"
	userrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/user"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
)

// eventRecorder captures published events so tests can assert on fan-out
// without a live hub.
type eventRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *eventRecorder) Publish(ctx context.Context, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []realtime.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *eventRecorder) last() (realtime.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return realtime.Event{}, false
	}
	return r.events[len(r.events)-1], true
}

type testEnv struct {
	db     *gorm.DB
	events *eventRecorder

	auth AuthService
	user UserService
	chat ChatService
	msg  MessageService
	feed FeedService

	postReactions    ReactionService
	commentReactions ReactionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	users := userrepo.NewUserRepo(gdb, log)
	tokens := authrepo.NewUserTokenRepo(gdb, log)
	sessions := chatrepo.NewSessionRepo(gdb, log)
	messages := chatrepo.NewMessageRepo(gdb, log)
	posts := feedrepo.NewPostRepo(gdb, log)
	comments := feedrepo.NewCommentRepo(gdb, log)
	postReactions := reactionrepo.NewReactionRepo(gdb, log, types.PostReactionTable)
	commentReactions := reactionrepo.NewReactionRepo(gdb, log, types.CommentReactionTable)

	events := &eventRecorder{}
	auth := NewAuthService(gdb, log, users, tokens, "unit-test-secret-key-0123456789abcdef", time.Hour, 24*time.Hour)

	return &testEnv{
		db:     gdb,
		events: events,
		auth:   auth,
		user:   NewUserService(log, users),
		chat:   NewChatService(gdb, log, users, sessions, messages),
		msg:    NewMessageService(gdb, log, auth, sessions, messages, events),
		feed:   NewFeedService(gdb, log, auth, posts, comments, postReactions, commentReactions),

		postReactions:    NewReactionService(log, "post", postReactions, posts.ExistsByID),
		commentReactions: NewReactionService(log, "comment", commentReactions, comments.ExistsByID),
	}
}

func (e *testEnv) dbc() dbctx.Context {
	return dbctx.New(context.Background())
}

func (e *testEnv) createUser(t *testing.T, username string) *types.User {
	t.Helper()
	user, err := e.auth.Register(e.dbc(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		FullName: username,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func asIdentity(u *types.User) ctxutil.Identity {
	return ctxutil.Identity{UserID: u.ID, Role: u.Role}
}

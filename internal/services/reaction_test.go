package services

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/reaction"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
)

func newPost(t *testing.T, env *testEnv, author *types.User) *types.Post {
	t.Helper()
	post, err := env.feed.CreatePost(env.dbc(), asIdentity(author), "a post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestReactionUpsertIdempotent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	post := newPost(t, env, alice)

	first, err := env.postReactions.Set(env.dbc(), asIdentity(alice), post.ID, reaction.TypeLike)
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	// Same reaction again: same row, nothing new in the ledger.
	again, err := env.postReactions.Set(env.dbc(), asIdentity(alice), post.ID, reaction.TypeLike)
	if err != nil {
		t.Fatalf("set again: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("repeat upsert produced a new row: %s vs %s", again.ID, first.ID)
	}

	// Different type: replaced in place, still the same row.
	changed, err := env.postReactions.Set(env.dbc(), asIdentity(alice), post.ID, reaction.TypeLove)
	if err != nil {
		t.Fatalf("change type: %v", err)
	}
	if changed.ID != first.ID {
		t.Fatalf("type change produced a new row: %s vs %s", changed.ID, first.ID)
	}
	if changed.Type != reaction.TypeLove {
		t.Fatalf("type = %q, want %q", changed.Type, reaction.TypeLove)
	}

	n, err := env.postReactions.CountByTarget(env.dbc(), post.ID, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("ledger rows = %d, want 1", n)
	}
}

func TestReactionValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	post := newPost(t, env, alice)

	if _, err := env.postReactions.Set(env.dbc(), asIdentity(alice), post.ID, "MEH"); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("bad type err = %v, want Validation", err)
	}
	if _, err := env.postReactions.Set(env.dbc(), asIdentity(alice), uuid.New(), reaction.TypeLike); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("missing target err = %v, want NotFound", err)
	}
	if err := env.postReactions.Remove(env.dbc(), asIdentity(alice), post.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("remove nothing err = %v, want NotFound", err)
	}
}

func TestReactionRemove(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	post := newPost(t, env, alice)

	for _, u := range []*types.User{alice, bob} {
		if _, err := env.postReactions.Set(env.dbc(), asIdentity(u), post.ID, reaction.TypeLike); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := env.postReactions.Remove(env.dbc(), asIdentity(alice), post.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// Only alice's row went away.
	n, err := env.postReactions.CountByTarget(env.dbc(), post.ID, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows after remove = %d, want 1", n)
	}
	if _, err := env.postReactions.Get(env.dbc(), asIdentity(bob), post.ID); err != nil {
		t.Fatalf("bob's reaction gone: %v", err)
	}
}

func TestReactionCountFilter(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	post := newPost(t, env, alice)

	votes := map[*types.User]string{
		alice: reaction.TypeLike,
		bob:   reaction.TypeLike,
		carol: reaction.TypeWow,
	}
	for u, typ := range votes {
		if _, err := env.postReactions.Set(env.dbc(), asIdentity(u), post.ID, typ); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	cases := []struct {
		filter string
		want   int64
	}{
		{"", 3},
		{reaction.TypeLike, 2},
		{reaction.TypeWow, 1},
		{reaction.TypeSad, 0},
	}
	for _, tc := range cases {
		n, err := env.postReactions.CountByTarget(env.dbc(), post.ID, tc.filter)
		if err != nil {
			t.Fatalf("count %q: %v", tc.filter, err)
		}
		if n != tc.want {
			t.Fatalf("count %q = %d, want %d", tc.filter, n, tc.want)
		}
	}
}

func TestLedgersAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	post := newPost(t, env, alice)
	comment, err := env.feed.CreateComment(env.dbc(), asIdentity(alice), post.ID, "a comment")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := env.postReactions.Set(env.dbc(), asIdentity(alice), post.ID, reaction.TypeLike); err != nil {
		t.Fatalf("post reaction: %v", err)
	}
	if _, err := env.commentReactions.Set(env.dbc(), asIdentity(alice), comment.ID, reaction.TypeHaha); err != nil {
		t.Fatalf("comment reaction: %v", err)
	}

	// A post id is not a comment target and vice versa.
	if _, err := env.commentReactions.Set(env.dbc(), asIdentity(alice), post.ID, reaction.TypeLike); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("post id on comment ledger err = %v, want NotFound", err)
	}

	mine, err := env.postReactions.ListByUser(env.dbc(), alice.ID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].TargetID != post.ID {
		t.Fatalf("post ledger rows = %+v, want only the post reaction", mine)
	}
}

func TestDeletePostCleansBothLedgers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	post := newPost(t, env, alice)
	comment, err := env.feed.CreateComment(env.dbc(), asIdentity(bob), post.ID, "nice")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := env.postReactions.Set(env.dbc(), asIdentity(bob), post.ID, reaction.TypeLike); err != nil {
		t.Fatalf("post reaction: %v", err)
	}
	if _, err := env.commentReactions.Set(env.dbc(), asIdentity(alice), comment.ID, reaction.TypeLove); err != nil {
		t.Fatalf("comment reaction: %v", err)
	}

	if err := env.feed.DeletePost(env.dbc(), asIdentity(alice), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := env.feed.GetComment(env.dbc(), comment.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("comment err = %v, want NotFound", err)
	}
	for name, svc := range map[string]ReactionService{"post": env.postReactions, "comment": env.commentReactions} {
		rows, err := svc.ListByUser(env.dbc(), bob.ID)
		if err != nil {
			t.Fatalf("list %s ledger: %v", name, err)
		}
		if len(rows) != 0 {
			t.Fatalf("%s ledger still holds %d rows after post delete", name, len(rows))
		}
	}
	rows, err := env.commentReactions.ListByUser(env.dbc(), alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("comment ledger still holds %d rows", len(rows))
	}
}

func TestDeletePostOwnerGate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	post := newPost(t, env, alice)

	if err := env.feed.DeletePost(env.dbc(), asIdentity(bob), post.ID); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("non-owner delete err = %v, want Forbidden", err)
	}
}

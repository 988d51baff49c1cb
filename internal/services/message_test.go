package services

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
)

func newSessionWith(t *testing.T, env *testEnv, members ...uuid.UUID) uuid.UUID {
	t.Helper()
	view, _, err := env.chat.CreateOrGetSession(env.dbc(), members, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return view.Session.ID
}

func TestAppendRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	eve := env.createUser(t, "eve")
	sessionID := newSessionWith(t, env, alice.ID, bob.ID)

	if _, err := env.msg.Append(env.dbc(), asIdentity(eve), sessionID, AppendInput{Content: "hi"}); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("outsider append err = %v, want Forbidden", err)
	}
	if _, err := env.msg.Append(env.dbc(), asIdentity(alice), uuid.New(), AppendInput{Content: "hi"}); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("missing session err = %v, want NotFound", err)
	}
	if _, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("empty message err = %v, want Validation", err)
	}

	msg, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: "hi"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.Status != chat.StatusSent {
		t.Fatalf("new message status = %q, want %q", msg.Status, chat.StatusSent)
	}

	ev, ok := env.events.last()
	if !ok || ev.Kind != realtime.EventMessageCreated {
		t.Fatalf("expected a MessageCreated event, got %+v", ev)
	}
	if ev.Channel != realtime.SessionChannel(sessionID) {
		t.Fatalf("event channel = %q, want %q", ev.Channel, realtime.SessionChannel(sessionID))
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	sessionID := newSessionWith(t, env, alice.ID, bob.ID)

	for i := 0; i < 3; i++ {
		if _, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: "ping"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := env.msg.Append(env.dbc(), asIdentity(bob), sessionID, AppendInput{Content: "pong"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Own messages never count as unread.
	n, err := env.msg.UnreadCount(env.dbc(), asIdentity(bob), sessionID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 3 {
		t.Fatalf("bob unread = %d, want 3", n)
	}
	n, err = env.msg.UnreadCount(env.dbc(), asIdentity(alice), sessionID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 1 {
		t.Fatalf("alice unread = %d, want 1", n)
	}

	updated, err := env.msg.MarkAllOtherAs(env.dbc(), asIdentity(bob), sessionID, chat.StatusRead)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if updated != 3 {
		t.Fatalf("marked = %d, want 3", updated)
	}
	n, err = env.msg.UnreadCount(env.dbc(), asIdentity(bob), sessionID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 0 {
		t.Fatalf("bob unread after mark = %d, want 0", n)
	}

	// Alice's view is untouched: bob's message is still unread for her.
	n, err = env.msg.UnreadCount(env.dbc(), asIdentity(alice), sessionID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 1 {
		t.Fatalf("alice unread = %d, want 1", n)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	sessionID := newSessionWith(t, env, alice.ID, bob.ID)

	if _, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := env.msg.MarkAllOtherAs(env.dbc(), asIdentity(bob), sessionID, chat.StatusRead); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// A later DELIVERED sweep must not pull READ messages backwards.
	n, err := env.msg.MarkAllOtherAs(env.dbc(), asIdentity(bob), sessionID, chat.StatusDelivered)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if n != 0 {
		t.Fatalf("delivered sweep touched %d rows, want 0", n)
	}
	msgs, err := env.msg.ListBySession(env.dbc(), asIdentity(bob), sessionID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if msgs[0].Status != chat.StatusRead {
		t.Fatalf("status = %q, want %q", msgs[0].Status, chat.StatusRead)
	}

	if _, err := env.msg.MarkAllOtherAs(env.dbc(), asIdentity(bob), sessionID, "BOGUS"); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("bogus status err = %v, want Validation", err)
	}
}

func TestUpdateAndDeleteOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	sessionID := newSessionWith(t, env, alice.ID, bob.ID)

	msg, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: "original"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := env.msg.MarkAllOtherAs(env.dbc(), asIdentity(bob), sessionID, chat.StatusRead); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if _, err := env.msg.UpdateContent(env.dbc(), asIdentity(bob), msg.ID, "hijacked"); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("non-owner update err = %v, want Forbidden", err)
	}
	if err := env.msg.Delete(env.dbc(), asIdentity(bob), msg.ID); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("non-owner delete err = %v, want Forbidden", err)
	}

	updated, err := env.msg.UpdateContent(env.dbc(), asIdentity(alice), msg.ID, "edited")
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("content = %q, want %q", updated.Content, "edited")
	}
	// Editing the body does not reset delivery state.
	if updated.Status != chat.StatusRead {
		t.Fatalf("status after edit = %q, want %q", updated.Status, chat.StatusRead)
	}

	// Admins bypass the owner gate.
	admin := ctxutil.Identity{UserID: bob.ID, Role: types.RoleAdmin}
	if err := env.msg.Delete(env.dbc(), admin, msg.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := env.msg.Get(env.dbc(), asIdentity(alice), msg.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("get deleted err = %v, want NotFound", err)
	}

	kinds := env.events.kinds()
	if len(kinds) == 0 || kinds[len(kinds)-1] != realtime.EventMessageDeleted {
		t.Fatalf("last event = %v, want MessageDeleted", kinds)
	}
}

func TestMessagesOrderedByCreation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	sessionID := newSessionWith(t, env, alice.ID, bob.ID)

	want := []string{"one", "two", "three"}
	for _, content := range want {
		if _, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: content}); err != nil {
			t.Fatalf("append %q: %v", content, err)
		}
	}
	msgs, err := env.msg.ListBySession(env.dbc(), asIdentity(bob), sessionID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != len(want) {
		t.Fatalf("len = %d, want %d", len(msgs), len(want))
	}
	for i, m := range msgs {
		if m.Content != want[i] {
			t.Fatalf("msgs[%d] = %q, want %q", i, m.Content, want[i])
		}
	}
}

package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
)

func TestDirectSessionDedup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	first, created, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !created {
		t.Fatal("first create reported existing session")
	}

	// Same pair in the opposite order lands on the same session.
	second, created, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{bob.ID, alice.ID}, nil)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatal("second create did not dedup")
	}
	if second.Session.ID != first.Session.ID {
		t.Fatalf("dedup returned different session: %s vs %s", second.Session.ID, first.Session.ID)
	}
	if len(second.MemberIDs) != 2 {
		t.Fatalf("member count = %d, want 2", len(second.MemberIDs))
	}
}

func TestCreateSessionLenientResolution(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	// Unknown ids are skipped; the session is created with who resolved.
	view, created, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, uuid.New(), uuid.New()}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !created {
		t.Fatal("expected a new session")
	}
	if len(view.MemberIDs) != 1 || view.MemberIDs[0] != alice.ID {
		t.Fatalf("members = %v, want just alice", view.MemberIDs)
	}

	// When nobody resolves there is nothing to create.
	_, _, err = env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{uuid.New()}, nil)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestAddMemberDisarmsDirectDedup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	view, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	grown, err := env.chat.AddMember(env.dbc(), view.Session.ID, carol.ID)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(grown.MemberIDs) != 3 {
		t.Fatalf("member count = %d, want 3", len(grown.MemberIDs))
	}
	if grown.Session.PairKey != nil {
		t.Fatal("three-member session still carries a pair key")
	}

	// With the key released, a fresh direct session for the pair is allowed.
	fresh, created, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create direct session again: %v", err)
	}
	if !created || fresh.Session.ID == view.Session.ID {
		t.Fatal("expected a brand new direct session")
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	view, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	again, err := env.chat.AddMember(env.dbc(), view.Session.ID, bob.ID)
	if err != nil {
		t.Fatalf("re-add member: %v", err)
	}
	if len(again.MemberIDs) != 2 {
		t.Fatalf("member count = %d, want 2", len(again.MemberIDs))
	}
}

func TestRemoveLastMemberDeletesSession(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	view, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sessionID := view.Session.ID

	if _, err := env.msg.Append(env.dbc(), asIdentity(alice), sessionID, AppendInput{Content: "hello"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, deleted, err := env.chat.RemoveMember(env.dbc(), sessionID, alice.ID); err != nil || deleted {
		t.Fatalf("first removal: deleted=%v err=%v", deleted, err)
	}
	_, deleted, err := env.chat.RemoveMember(env.dbc(), sessionID, bob.ID)
	if err != nil {
		t.Fatalf("last removal: %v", err)
	}
	if !deleted {
		t.Fatal("removing the last member did not delete the session")
	}

	if _, err := env.chat.GetSession(env.dbc(), sessionID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("get deleted session err = %v, want NotFound", err)
	}
	// Messages went with it.
	if _, err := env.msg.ListBySession(env.dbc(), asIdentity(bob), sessionID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("list messages err = %v, want NotFound", err)
	}
}

func TestRemoveMemberNotInSession(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	view, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, _, err := env.chat.RemoveMember(env.dbc(), view.Session.ID, carol.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestListSessionsForMember(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	if _, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, bob.ID}, nil); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, _, err := env.chat.CreateOrGetSession(env.dbc(), []uuid.UUID{alice.ID, carol.ID}, nil); err != nil {
		t.Fatalf("create session: %v", err)
	}

	mine, err := env.chat.ListSessionsForMember(env.dbc(), alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("alice sessions = %d, want 2", len(mine))
	}
	theirs, err := env.chat.ListSessionsForMember(env.dbc(), bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(theirs) != 1 {
		t.Fatalf("bob sessions = %d, want 1", len(theirs))
	}
}

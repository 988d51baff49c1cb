package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	chatrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/chat"
	userrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/user"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

// SessionView is a session plus its resolved membership, the shape every
// read path returns.
type SessionView struct {
	Session   *types.ChatSession `json:"session"`
	MemberIDs []uuid.UUID        `json:"member_ids"`
}

type ChatService interface {
	// CreateOrGetSession resolves the requested members leniently: ids that
	// match no user are skipped, and the session is created with whoever
	// resolved. Only when nobody resolves does it fail. For exactly two
	// resolved members an existing direct session is returned instead of a
	// duplicate.
	CreateOrGetSession(dbc dbctx.Context, memberIDs []uuid.UUID, metadata datatypes.JSON) (*SessionView, bool, error)
	GetSession(dbc dbctx.Context, sessionID uuid.UUID) (*SessionView, error)
	ListSessionsForMember(dbc dbctx.Context, userID uuid.UUID) ([]*SessionView, error)
	AddMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (*SessionView, error)

	// RemoveMember drops the user from the session. Removing the last member
	// deletes the session and its messages; the returned flag reports that.
	RemoveMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (*SessionView, bool, error)
	DeleteSession(dbc dbctx.Context, sessionID uuid.UUID) error
}

type chatService struct {
	db       *gorm.DB
	log      *logger.Logger
	users    userrepo.UserRepo
	sessions chatrepo.SessionRepo
	messages chatrepo.MessageRepo
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users userrepo.UserRepo,
	sessions chatrepo.SessionRepo,
	messages chatrepo.MessageRepo,
) ChatService {
	return &chatService{
		db:       db,
		log:      baseLog.With("service", "ChatService"),
		users:    users,
		sessions: sessions,
		messages: messages,
	}
}

func (s *chatService) CreateOrGetSession(dbc dbctx.Context, memberIDs []uuid.UUID, metadata datatypes.JSON) (*SessionView, bool, error) {
	requested := dedupeIDs(memberIDs)
	if len(requested) == 0 {
		return nil, false, apperr.New(apperr.Validation, "at least one member is required")
	}

	resolved, err := s.users.GetByIDs(dbc, requested)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, "resolve members", err)
	}
	if len(resolved) == 0 {
		return nil, false, apperr.New(apperr.NotFound, "none of the requested members exist")
	}
	if len(resolved) < len(requested) {
		s.log.Warn("some requested members do not exist, proceeding without them",
			"requested", len(requested), "resolved", len(resolved))
	}

	ids := make([]uuid.UUID, 0, len(resolved))
	for _, u := range resolved {
		ids = append(ids, u.ID)
	}

	var pairKey *string
	if len(ids) == 2 {
		k := chat.PairKeyFor(ids[0], ids[1])
		pairKey = &k

		existing, err := s.sessions.GetByPairKey(dbc, k)
		if err == nil {
			return s.view(dbc, existing)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.Wrap(apperr.Internal, "lookup direct session", err)
		}
	}

	if len(metadata) == 0 {
		metadata = datatypes.JSON([]byte(`{}`))
	}
	session := &types.ChatSession{
		ID:       uuid.New(),
		PairKey:  pairKey,
		Metadata: metadata,
	}

	var created *types.ChatSession
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.sessions.Create(dbc.WithTx(tx), session, ids)
		if err != nil {
			return err
		}
		created = row
		return nil
	})
	if txErr != nil {
		// A concurrent request may have created the same direct session
		// first; the unique pair_key index makes this insert lose, so the
		// winner's row is the answer.
		if pairKey != nil {
			if winner, gErr := s.sessions.GetByPairKey(dbc, *pairKey); gErr == nil {
				return s.view(dbc, winner)
			}
		}
		return nil, false, apperr.Wrap(apperr.Internal, "create session", txErr)
	}

	s.log.Info("session created", "session_id", created.ID, "members", len(ids))
	members, err := s.sessions.MemberIDs(dbc, created.ID)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, "load members", err)
	}
	return &SessionView{Session: created, MemberIDs: members}, true, nil
}

func (s *chatService) GetSession(dbc dbctx.Context, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "session not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load session", err)
	}
	view, _, err := s.view(dbc, session)
	return view, err
}

func (s *chatService) ListSessionsForMember(dbc dbctx.Context, userID uuid.UUID) ([]*SessionView, error) {
	sessions, err := s.sessions.ListByMember(dbc, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list sessions", err)
	}
	out := make([]*SessionView, 0, len(sessions))
	for _, session := range sessions {
		view, _, err := s.view(dbc, session)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *chatService) AddMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (*SessionView, error) {
	if _, err := s.sessions.GetByID(dbc, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "session not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load session", err)
	}
	if ok, err := s.users.ExistsByID(dbc, userID); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "check user", err)
	} else if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}

	var view *SessionView
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)
		if err := s.sessions.AddMember(repoCtx, sessionID, userID); err != nil {
			return err
		}
		if err := s.syncPairKey(repoCtx, sessionID); err != nil {
			return err
		}
		session, err := s.sessions.GetByID(repoCtx, sessionID)
		if err != nil {
			return err
		}
		v, _, err := s.view(repoCtx, session)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.Internal, "add member", txErr)
	}
	return view, nil
}

func (s *chatService) RemoveMember(dbc dbctx.Context, sessionID, userID uuid.UUID) (*SessionView, bool, error) {
	if _, err := s.sessions.GetByID(dbc, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.New(apperr.NotFound, "session not found")
		}
		return nil, false, apperr.Wrap(apperr.Internal, "load session", err)
	}

	var view *SessionView
	var sessionDeleted bool
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)
		removed, err := s.sessions.RemoveMember(repoCtx, sessionID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.New(apperr.NotFound, "user is not a member of this session")
		}

		n, err := s.sessions.CountMembers(repoCtx, sessionID)
		if err != nil {
			return err
		}
		if n == 0 {
			if err := s.messages.DeleteBySession(repoCtx, sessionID); err != nil {
				return err
			}
			if err := s.sessions.Delete(repoCtx, sessionID); err != nil {
				return err
			}
			sessionDeleted = true
			return nil
		}

		if err := s.syncPairKey(repoCtx, sessionID); err != nil {
			return err
		}
		session, err := s.sessions.GetByID(repoCtx, sessionID)
		if err != nil {
			return err
		}
		v, _, err := s.view(repoCtx, session)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if txErr != nil {
		if apperr.KindOf(txErr) != apperr.Internal {
			return nil, false, txErr
		}
		return nil, false, apperr.Wrap(apperr.Internal, "remove member", txErr)
	}
	if sessionDeleted {
		s.log.Info("session deleted with last member", "session_id", sessionID)
		return nil, true, nil
	}
	return view, false, nil
}

func (s *chatService) DeleteSession(dbc dbctx.Context, sessionID uuid.UUID) error {
	if _, err := s.sessions.GetByID(dbc, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "session not found")
		}
		return apperr.Wrap(apperr.Internal, "load session", err)
	}
	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)
		if err := s.messages.DeleteBySession(repoCtx, sessionID); err != nil {
			return err
		}
		return s.sessions.Delete(repoCtx, sessionID)
	})
	if txErr != nil {
		return apperr.Wrap(apperr.Internal, "delete session", txErr)
	}
	return nil
}

// syncPairKey keeps the direct-session dedup key in step with membership:
// exactly two members arm it, anything else clears it.
func (s *chatService) syncPairKey(repoCtx dbctx.Context, sessionID uuid.UUID) error {
	members, err := s.sessions.MemberIDs(repoCtx, sessionID)
	if err != nil {
		return err
	}
	if len(members) == 2 {
		k := chat.PairKeyFor(members[0], members[1])
		// Another session may already hold this key; dedup applies to new
		// direct sessions only, so that one keeps it.
		if holder, err := s.sessions.GetByPairKey(repoCtx, k); err == nil && holder.ID != sessionID {
			return s.sessions.SetPairKey(repoCtx, sessionID, nil)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.sessions.SetPairKey(repoCtx, sessionID, &k)
	}
	return s.sessions.SetPairKey(repoCtx, sessionID, nil)
}

func (s *chatService) view(dbc dbctx.Context, session *types.ChatSession) (*SessionView, bool, error) {
	members, err := s.sessions.MemberIDs(dbc, session.ID)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, "load members", err)
	}
	return &SessionView{Session: session, MemberIDs: members}, false, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

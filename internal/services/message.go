package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	chatrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/chat"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
)

type AppendInput struct {
	Content        string
	Attachment     []byte
	AttachmentKind string
}

type MessageService interface {
	// Append persists a message from the caller into the session. The caller
	// must be a member. New messages always start in SENT.
	Append(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID, in AppendInput) (*types.Message, error)
	Get(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID) (*types.Message, error)
	ListBySession(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID) ([]*types.Message, error)

	// UpdateContent edits the body only; the sender keeps it, everyone else
	// gets Forbidden (admins excepted). Status and creation time never move.
	UpdateContent(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID, content string) (*types.Message, error)
	Delete(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID) error

	// MarkAllOtherAs advances every message in the session the caller did not
	// send to target. Messages already at or past target are untouched.
	MarkAllOtherAs(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID, target string) (int64, error)

	// UnreadCount is the number of messages in the session from other senders
	// that the caller has not read yet.
	UnreadCount(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID) (int64, error)
}

type messageService struct {
	db        *gorm.DB
	log       *logger.Logger
	auth      AuthService
	sessions  chatrepo.SessionRepo
	messages  chatrepo.MessageRepo
	broadcast Broadcaster
}

func NewMessageService(
	db *gorm.DB,
	baseLog *logger.Logger,
	auth AuthService,
	sessions chatrepo.SessionRepo,
	messages chatrepo.MessageRepo,
	broadcast Broadcaster,
) MessageService {
	return &messageService{
		db:        db,
		log:       baseLog.With("service", "MessageService"),
		auth:      auth,
		sessions:  sessions,
		messages:  messages,
		broadcast: broadcast,
	}
}

func (s *messageService) requireMember(dbc dbctx.Context, sessionID, userID uuid.UUID) error {
	if _, err := s.sessions.GetByID(dbc, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "session not found")
		}
		return apperr.Wrap(apperr.Internal, "load session", err)
	}
	ok, err := s.sessions.IsMember(dbc, sessionID, userID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "check membership", err)
	}
	if !ok {
		return apperr.New(apperr.Forbidden, "not a member of this session")
	}
	return nil
}

func (s *messageService) Append(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID, in AppendInput) (*types.Message, error) {
	if strings.TrimSpace(in.Content) == "" && len(in.Attachment) == 0 {
		return nil, apperr.New(apperr.Validation, "message needs content or an attachment")
	}
	if err := s.requireMember(dbc, sessionID, id.UserID); err != nil {
		return nil, err
	}

	row := &types.Message{
		ID:             uuid.New(),
		SessionID:      sessionID,
		SenderID:       id.UserID,
		Content:        in.Content,
		Attachment:     in.Attachment,
		AttachmentKind: in.AttachmentKind,
		Status:         chat.StatusSent,
	}
	created, err := s.messages.Create(dbc, row)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create message", err)
	}

	s.broadcast.Publish(dbc.Ctx, realtime.Event{
		Channel: realtime.SessionChannel(sessionID),
		Kind:    realtime.EventMessageCreated,
		Data:    created,
	})
	return created, nil
}

func (s *messageService) Get(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID) (*types.Message, error) {
	row, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "message not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load message", err)
	}
	if err := s.requireMember(dbc, row.SessionID, id.UserID); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *messageService) ListBySession(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID) ([]*types.Message, error) {
	if err := s.requireMember(dbc, sessionID, id.UserID); err != nil {
		return nil, err
	}
	rows, err := s.messages.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list messages", err)
	}
	return rows, nil
}

func (s *messageService) UpdateContent(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID, content string) (*types.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.New(apperr.Validation, "content is required")
	}
	row, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "message not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load message", err)
	}
	if err := s.auth.AuthorizeOwner(id, row.SenderID); err != nil {
		return nil, err
	}

	if err := s.messages.UpdateContent(dbc, messageID, content); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update message", err)
	}
	updated, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "reload message", err)
	}

	s.broadcast.Publish(dbc.Ctx, realtime.Event{
		Channel: realtime.SessionChannel(updated.SessionID),
		Kind:    realtime.EventMessageUpdated,
		Data:    updated,
	})
	return updated, nil
}

func (s *messageService) Delete(dbc dbctx.Context, id ctxutil.Identity, messageID uuid.UUID) error {
	row, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "message not found")
		}
		return apperr.Wrap(apperr.Internal, "load message", err)
	}
	if err := s.auth.AuthorizeOwner(id, row.SenderID); err != nil {
		return err
	}

	if err := s.messages.Delete(dbc, messageID); err != nil {
		return apperr.Wrap(apperr.Internal, "delete message", err)
	}

	s.broadcast.Publish(dbc.Ctx, realtime.Event{
		Channel: realtime.SessionChannel(row.SessionID),
		Kind:    realtime.EventMessageDeleted,
		Data: map[string]interface{}{
			"id":         row.ID,
			"session_id": row.SessionID,
		},
	})
	return nil
}

func (s *messageService) MarkAllOtherAs(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID, target string) (int64, error) {
	if !chat.ValidStatus(target) {
		return 0, apperr.Newf(apperr.Validation, "unknown message status %q", target)
	}
	if err := s.requireMember(dbc, sessionID, id.UserID); err != nil {
		return 0, err
	}
	n, err := s.messages.AdvanceStatusBulk(dbc, sessionID, id.UserID, target)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "advance message status", err)
	}
	if n > 0 {
		s.log.Debug("messages advanced", "session_id", sessionID, "target", target, "count", n)
	}
	return n, nil
}

func (s *messageService) UnreadCount(dbc dbctx.Context, id ctxutil.Identity, sessionID uuid.UUID) (int64, error) {
	if err := s.requireMember(dbc, sessionID, id.UserID); err != nil {
		return 0, err
	}
	n, err := s.messages.CountUnread(dbc, sessionID, id.UserID)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count unread", err)
	}
	return n, nil
}

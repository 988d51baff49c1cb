package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.Hub
	chat     services.ChatService
	messages services.MessageService

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.Client // one stream per user
}

func NewRealtimeHandler(
	log *logger.Logger,
	hub *realtime.Hub,
	chat services.ChatService,
	messages services.MessageService,
) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		chat:     chat,
		messages: messages,
		clients:  make(map[uuid.UUID]*realtime.Client),
	}
}

// requireSessionMember verifies the caller belongs to the session before a
// channel subscription is honored.
func (h *RealtimeHandler) requireSessionMember(c *gin.Context, sessionID, userID uuid.UUID) error {
	view, err := h.chat.GetSession(dbctx.New(c.Request.Context()), sessionID)
	if err != nil {
		return err
	}
	for _, m := range view.MemberIDs {
		if m == userID {
			return nil
		}
	}
	return apperr.New(apperr.Forbidden, "not a member of this session")
}

// GET /api/realtime/stream?sessions=<uuid>,<uuid>
//
// Opens the caller's SSE stream and subscribes it to the named sessions. A
// second stream from the same user replaces the first.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	var sessionIDs []uuid.UUID
	for _, raw := range c.QueryArray("sessions") {
		sid, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
			return
		}
		if err := h.requireSessionMember(c, sid, id.UserID); err != nil {
			response.RespondError(c, err)
			return
		}
		sessionIDs = append(sessionIDs, sid)
	}

	h.mu.Lock()
	if existing, ok := h.clients[id.UserID]; ok {
		h.hub.CloseClient(existing)
	}
	client := h.hub.NewClient(id.UserID)
	h.clients[id.UserID] = client
	h.mu.Unlock()

	for _, sid := range sessionIDs {
		h.hub.Subscribe(client, realtime.SessionChannel(sid))
	}
	h.log.Info("stream open", "user_id", id.UserID, "sessions", len(sessionIDs))

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[id.UserID] == client {
		delete(h.clients, id.UserID)
	}
	h.mu.Unlock()
	h.hub.RemoveClient(client)
}

type subscribeReq struct {
	SessionID uuid.UUID `json:"session_id"`
}

// POST /api/realtime/subscribe
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == uuid.Nil {
		response.RespondError(c, apperr.New(apperr.Validation, "session_id is required"))
		return
	}
	if err := h.requireSessionMember(c, req.SessionID, id.UserID); err != nil {
		response.RespondError(c, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[id.UserID]
	h.mu.RUnlock()
	if !ok {
		response.RespondError(c, apperr.New(apperr.NotFound, "no open stream"))
		return
	}
	h.hub.Subscribe(client, realtime.SessionChannel(req.SessionID))
	response.RespondOK(c, gin.H{"subscribed": true})
}

// POST /api/realtime/unsubscribe
func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == uuid.Nil {
		response.RespondError(c, apperr.New(apperr.Validation, "session_id is required"))
		return
	}

	h.mu.RLock()
	client, ok := h.clients[id.UserID]
	h.mu.RUnlock()
	if !ok {
		response.RespondError(c, apperr.New(apperr.NotFound, "no open stream"))
		return
	}
	h.hub.Unsubscribe(client, realtime.SessionChannel(req.SessionID))
	response.RespondOK(c, gin.H{"unsubscribed": true})
}

type publishReq struct {
	SessionID      uuid.UUID `json:"session_id"`
	Content        string    `json:"content"`
	Attachment     []byte    `json:"attachment,omitempty"`
	AttachmentKind string    `json:"attachment_kind,omitempty"`
}

// POST /api/realtime/chats/:id/publish
//
// Realtime ingress for chat messages: the publish is acknowledged, then the
// message lands in the session and fans out to subscribers. A payload whose
// session_id disagrees with the path is dropped without error; the ack says
// nothing about delivery.
func (h *RealtimeHandler) Publish(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	pathSessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	var req publishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	if req.SessionID != uuid.Nil && req.SessionID != pathSessionID {
		h.log.Warn("publish dropped, payload session does not match path",
			"path_session_id", pathSessionID, "payload_session_id", req.SessionID, "user_id", id.UserID)
		response.Respond(c, http.StatusAccepted, gin.H{"accepted": true})
		return
	}

	dbc := dbctx.New(c.Request.Context())
	if _, err := h.messages.Append(dbc, id, pathSessionID, services.AppendInput{
		Content:        req.Content,
		Attachment:     req.Attachment,
		AttachmentKind: req.AttachmentKind,
	}); err != nil {
		response.RespondError(c, err)
		return
	}
	response.Respond(c, http.StatusAccepted, gin.H{"accepted": true})
}

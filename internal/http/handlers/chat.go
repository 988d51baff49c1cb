package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type createSessionReq struct {
	MemberIDs []uuid.UUID    `json:"member_ids"`
	Metadata  datatypes.JSON `json:"metadata"`
}

// POST /api/chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	// The caller is always part of the session they open.
	members := append([]uuid.UUID{id.UserID}, req.MemberIDs...)

	dbc := dbctx.New(c.Request.Context())
	view, created, err := h.chat.CreateOrGetSession(dbc, members, req.Metadata)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if created {
		response.RespondCreated(c, gin.H{"session": view})
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// GET /api/chat/sessions
func (h *ChatHandler) ListMySessions(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	views, err := h.chat.ListSessionsForMember(dbc, id.UserID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": views})
}

// GET /api/chat/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	view, err := h.chat.GetSession(dbc, sessionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

type addMemberReq struct {
	UserID uuid.UUID `json:"user_id"`
}

// POST /api/chat/sessions/:id/members
func (h *ChatHandler) AddMember(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	var req addMemberReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		response.RespondError(c, apperr.New(apperr.Validation, "user_id is required"))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	view, err := h.chat.AddMember(dbc, sessionID, req.UserID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// DELETE /api/chat/sessions/:id/members/:userId
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid user id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	view, deleted, err := h.chat.RemoveMember(dbc, sessionID, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if deleted {
		response.RespondOK(c, gin.H{"session_deleted": true})
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// DELETE /api/chat/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.chat.DeleteSession(dbc, sessionID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

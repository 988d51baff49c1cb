package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type MessageHandler struct {
	messages services.MessageService
}

func NewMessageHandler(messages services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageReq struct {
	Content        string `json:"content"`
	Attachment     []byte `json:"attachment,omitempty"`
	AttachmentKind string `json:"attachment_kind,omitempty"`
}

// POST /api/chat/sessions/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	msg, err := h.messages.Append(dbc, id, sessionID, services.AppendInput{
		Content:        req.Content,
		Attachment:     req.Attachment,
		AttachmentKind: req.AttachmentKind,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}

// GET /api/chat/sessions/:id/messages
func (h *MessageHandler) ListBySession(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	msgs, err := h.messages.ListBySession(dbc, id, sessionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

// GET /api/chat/messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid message id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	msg, err := h.messages.Get(dbc, id, messageID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": msg})
}

type updateMessageReq struct {
	Content string `json:"content"`
}

// PATCH /api/chat/messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid message id", err))
		return
	}
	var req updateMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	msg, err := h.messages.UpdateContent(dbc, id, messageID, req.Content)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": msg})
}

// DELETE /api/chat/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid message id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.messages.Delete(dbc, id, messageID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

type markReq struct {
	Status string `json:"status"`
}

// POST /api/chat/sessions/:id/mark
//
// Advances every message from other senders to the requested status,
// defaulting to READ when the body names none.
func (h *MessageHandler) MarkAllOther(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	var req markReq
	_ = c.ShouldBindJSON(&req)
	target := strings.ToUpper(strings.TrimSpace(req.Status))
	if target == "" {
		target = chat.StatusRead
	}
	dbc := dbctx.New(c.Request.Context())
	n, err := h.messages.MarkAllOtherAs(dbc, id, sessionID, target)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n, "status": target})
}

// GET /api/chat/sessions/:id/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid session id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	n, err := h.messages.UnreadCount(dbc, id, sessionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unread": n})
}

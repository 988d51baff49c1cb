package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

// ReactionHandler serves one ledger; the router mounts one instance under
// /posts and another under /comments.
type ReactionHandler struct {
	reactions services.ReactionService
}

func NewReactionHandler(reactions services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

type setReactionReq struct {
	Type string `json:"type"`
}

// PUT /api/{posts|comments}/:id/reactions
func (h *ReactionHandler) Set(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid target id", err))
		return
	}
	var req setReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	row, err := h.reactions.Set(dbc, id, targetID, strings.ToUpper(strings.TrimSpace(req.Type)))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reaction": row})
}

// DELETE /api/{posts|comments}/:id/reactions
func (h *ReactionHandler) Remove(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid target id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.reactions.Remove(dbc, id, targetID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"removed": true})
}

// GET /api/{posts|comments}/:id/reactions
func (h *ReactionHandler) ListByTarget(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid target id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	rows, err := h.reactions.ListByTarget(dbc, targetID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reactions": rows})
}

// GET /api/{posts|comments}/:id/reactions/count?type=LIKE
func (h *ReactionHandler) CountByTarget(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid target id", err))
		return
	}
	reactionType := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	dbc := dbctx.New(c.Request.Context())
	n, err := h.reactions.CountByTarget(dbc, targetID, reactionType)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// GET /api/{posts|comments}/:id/reactions/me
func (h *ReactionHandler) GetMine(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid target id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	row, err := h.reactions.Get(dbc, id, targetID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reaction": row})
}

// GET /api/me/reactions/{posts|comments}
func (h *ReactionHandler) ListMine(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	rows, err := h.reactions.ListByUser(dbc, id.UserID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reactions": rows})
}

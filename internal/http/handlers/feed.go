package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type FeedHandler struct {
	feed services.FeedService
}

func NewFeedHandler(feed services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

type contentReq struct {
	Content string `json:"content"`
}

// POST /api/posts
func (h *FeedHandler) CreatePost(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req contentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	post, err := h.feed.CreatePost(dbc, id, req.Content)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": post})
}

// GET /api/posts?limit=50
func (h *FeedHandler) ListPosts(c *gin.Context) {
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	dbc := dbctx.New(c.Request.Context())
	posts, err := h.feed.ListPosts(dbc, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

// GET /api/posts/:id
func (h *FeedHandler) GetPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid post id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	post, err := h.feed.GetPost(dbc, postID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// DELETE /api/posts/:id
func (h *FeedHandler) DeletePost(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid post id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.feed.DeletePost(dbc, id, postID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// POST /api/posts/:id/comments
func (h *FeedHandler) CreateComment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid post id", err))
		return
	}
	var req contentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	comment, err := h.feed.CreateComment(dbc, id, postID, req.Content)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": comment})
}

// GET /api/posts/:id/comments
func (h *FeedHandler) ListComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid post id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	comments, err := h.feed.ListComments(dbc, postID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

// GET /api/comments/:id
func (h *FeedHandler) GetComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid comment id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	comment, err := h.feed.GetComment(dbc, commentID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comment": comment})
}

// DELETE /api/comments/:id
func (h *FeedHandler) DeleteComment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid comment id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.feed.DeleteComment(dbc, id, commentID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

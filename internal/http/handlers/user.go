package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// identity pulls the verified caller out of the request context. RequireAuth
// guarantees it is there on protected routes.
func identity(c *gin.Context) (ctxutil.Identity, bool) {
	return ctxutil.GetIdentity(c.Request.Context())
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		response.RespondError(c, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	user, err := h.users.Get(dbc, id.UserID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid user id", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	user, err := h.users.Get(dbc, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

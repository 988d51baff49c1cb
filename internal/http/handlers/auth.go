package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	user, err := h.auth.Register(dbc, services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	user, pair, err := h.auth.Login(dbc, req.Identifier, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user, "tokens": pair})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}
	dbc := dbctx.New(c.Request.Context())
	pair, err := h.auth.Refresh(dbc, req.RefreshToken)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tokens": pair})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenString = authHeader[7:]
		}
	}
	dbc := dbctx.New(c.Request.Context())
	if err := h.auth.Logout(dbc, tokenString); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"logged_out": true})
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ostrakov/socialmesh-backend/internal/http/response"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), auth: auth}
}

// RequireAuth verifies the bearer token and attaches the caller identity to
// the request context. Handlers downstream can assume an identity is present.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.AbortError(c, apperr.New(apperr.Unauthenticated, "missing or invalid token"))
			return
		}
		id, err := am.auth.VerifyToken(tokenString)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// extractToken checks the query string first so EventSource clients, which
// cannot set headers, can authenticate the stream endpoint.
func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

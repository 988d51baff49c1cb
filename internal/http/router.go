package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/ostrakov/socialmesh-backend/internal/http/handlers"
	httpMW "github.com/ostrakov/socialmesh-backend/internal/http/middleware"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler            *httpH.AuthHandler
	UserHandler            *httpH.UserHandler
	ChatHandler            *httpH.ChatHandler
	MessageHandler         *httpH.MessageHandler
	FeedHandler            *httpH.FeedHandler
	PostReactionHandler    *httpH.ReactionHandler
	CommentReactionHandler *httpH.ReactionHandler
	RealtimeHandler        *httpH.RealtimeHandler
	HealthHandler          *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/users/:id", cfg.UserHandler.GetUser)
		}

		// Chat sessions
		if cfg.ChatHandler != nil {
			protected.POST("/chat/sessions", cfg.ChatHandler.CreateSession)
			protected.GET("/chat/sessions", cfg.ChatHandler.ListMySessions)
			protected.GET("/chat/sessions/:id", cfg.ChatHandler.GetSession)
			protected.DELETE("/chat/sessions/:id", cfg.ChatHandler.DeleteSession)
			protected.POST("/chat/sessions/:id/members", cfg.ChatHandler.AddMember)
			protected.DELETE("/chat/sessions/:id/members/:userId", cfg.ChatHandler.RemoveMember)
		}

		// Messages
		if cfg.MessageHandler != nil {
			protected.POST("/chat/sessions/:id/messages", cfg.MessageHandler.Send)
			protected.GET("/chat/sessions/:id/messages", cfg.MessageHandler.ListBySession)
			protected.POST("/chat/sessions/:id/mark", cfg.MessageHandler.MarkAllOther)
			protected.GET("/chat/sessions/:id/unread-count", cfg.MessageHandler.UnreadCount)
			protected.GET("/chat/messages/:id", cfg.MessageHandler.Get)
			protected.PATCH("/chat/messages/:id", cfg.MessageHandler.Update)
			protected.DELETE("/chat/messages/:id", cfg.MessageHandler.Delete)
		}

		// Feed
		if cfg.FeedHandler != nil {
			protected.POST("/posts", cfg.FeedHandler.CreatePost)
			protected.GET("/posts", cfg.FeedHandler.ListPosts)
			protected.GET("/posts/:id", cfg.FeedHandler.GetPost)
			protected.DELETE("/posts/:id", cfg.FeedHandler.DeletePost)
			protected.POST("/posts/:id/comments", cfg.FeedHandler.CreateComment)
			protected.GET("/posts/:id/comments", cfg.FeedHandler.ListComments)
			protected.GET("/comments/:id", cfg.FeedHandler.GetComment)
			protected.DELETE("/comments/:id", cfg.FeedHandler.DeleteComment)
		}

		// Post reactions
		if cfg.PostReactionHandler != nil {
			protected.PUT("/posts/:id/reactions", cfg.PostReactionHandler.Set)
			protected.DELETE("/posts/:id/reactions", cfg.PostReactionHandler.Remove)
			protected.GET("/posts/:id/reactions", cfg.PostReactionHandler.ListByTarget)
			protected.GET("/posts/:id/reactions/count", cfg.PostReactionHandler.CountByTarget)
			protected.GET("/posts/:id/reactions/me", cfg.PostReactionHandler.GetMine)
			protected.GET("/me/reactions/posts", cfg.PostReactionHandler.ListMine)
		}

		// Comment reactions
		if cfg.CommentReactionHandler != nil {
			protected.PUT("/comments/:id/reactions", cfg.CommentReactionHandler.Set)
			protected.DELETE("/comments/:id/reactions", cfg.CommentReactionHandler.Remove)
			protected.GET("/comments/:id/reactions", cfg.CommentReactionHandler.ListByTarget)
			protected.GET("/comments/:id/reactions/count", cfg.CommentReactionHandler.CountByTarget)
			protected.GET("/comments/:id/reactions/me", cfg.CommentReactionHandler.GetMine)
			protected.GET("/me/reactions/comments", cfg.CommentReactionHandler.ListMine)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)
			protected.POST("/realtime/subscribe", cfg.RealtimeHandler.Subscribe)
			protected.POST("/realtime/unsubscribe", cfg.RealtimeHandler.Unsubscribe)
			protected.POST("/realtime/chats/:id/publish", cfg.RealtimeHandler.Publish)
		}
	}

	return r
}

package app

import (
	"gorm.io/gorm"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
	"github.com/ostrakov/socialmesh-backend/internal/realtime/bus"
	"github.com/ostrakov/socialmesh-backend/internal/services"
)

type Services struct {
	Auth services.AuthService
	User services.UserService
	Chat services.ChatService
	Msg  services.MessageService
	Feed services.FeedService

	PostReactions    services.ReactionService
	CommentReactions services.ReactionService

	Broadcast services.Broadcaster
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *realtime.Hub, eventBus bus.Bus) Services {
	var broadcast services.Broadcaster
	if eventBus != nil {
		broadcast = &services.BusBroadcaster{Bus: eventBus, Log: log}
	} else {
		broadcast = &services.HubBroadcaster{Hub: hub}
	}

	authService := services.NewAuthService(db, log, r.Users, r.Tokens, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return Services{
		Auth: authService,
		User: services.NewUserService(log, r.Users),
		Chat: services.NewChatService(db, log, r.Users, r.Sessions, r.Messages),
		Msg:  services.NewMessageService(db, log, authService, r.Sessions, r.Messages, broadcast),
		Feed: services.NewFeedService(db, log, authService, r.Posts, r.Comments, r.PostReactions, r.CommentReactions),

		PostReactions:    services.NewReactionService(log, "post", r.PostReactions, r.Posts.ExistsByID),
		CommentReactions: services.NewReactionService(log, "comment", r.CommentReactions, r.Comments.ExistsByID),

		Broadcast: broadcast,
	}
}

package app

import (
	httpH "github.com/ostrakov/socialmesh-backend/internal/http/handlers"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
)

type Handlers struct {
	Auth             *httpH.AuthHandler
	User             *httpH.UserHandler
	Chat             *httpH.ChatHandler
	Msg              *httpH.MessageHandler
	Feed             *httpH.FeedHandler
	PostReactions    *httpH.ReactionHandler
	CommentReactions *httpH.ReactionHandler
	Realtime         *httpH.RealtimeHandler
	Health           *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.Hub) Handlers {
	return Handlers{
		Auth:             httpH.NewAuthHandler(s.Auth),
		User:             httpH.NewUserHandler(s.User),
		Chat:             httpH.NewChatHandler(s.Chat),
		Msg:              httpH.NewMessageHandler(s.Msg),
		Feed:             httpH.NewFeedHandler(s.Feed),
		PostReactions:    httpH.NewReactionHandler(s.PostReactions),
		CommentReactions: httpH.NewReactionHandler(s.CommentReactions),
		Realtime:         httpH.NewRealtimeHandler(log, hub, s.Chat, s.Msg),
		Health:           httpH.NewHealthHandler(),
	}
}

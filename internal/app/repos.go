package app

import (
	"gorm.io/gorm"

	authrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/auth"
	chatrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/chat"
	feedrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/feed"
	reactionrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/reaction"
	userrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/user"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type Repos struct {
	Users  userrepo.UserRepo
	Tokens authrepo.UserTokenRepo

	Sessions chatrepo.SessionRepo
	Messages chatrepo.MessageRepo

	Posts    feedrepo.PostRepo
	Comments feedrepo.CommentRepo

	PostReactions    reactionrepo.ReactionRepo
	CommentReactions reactionrepo.ReactionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:            userrepo.NewUserRepo(db, log),
		Tokens:           authrepo.NewUserTokenRepo(db, log),
		Sessions:         chatrepo.NewSessionRepo(db, log),
		Messages:         chatrepo.NewMessageRepo(db, log),
		Posts:            feedrepo.NewPostRepo(db, log),
		Comments:         feedrepo.NewCommentRepo(db, log),
		PostReactions:    reactionrepo.NewReactionRepo(db, log, types.PostReactionTable),
		CommentReactions: reactionrepo.NewReactionRepo(db, log, types.CommentReactionTable),
	}
}

// Package domain re-exports every persisted type under one import so repos and
// services can refer to them as types.X without juggling area packages.
package domain

import (
	"github.com/ostrakov/socialmesh-backend/internal/domain/auth"
	"github.com/ostrakov/socialmesh-backend/internal/domain/chat"
	"github.com/ostrakov/socialmesh-backend/internal/domain/feed"
	"github.com/ostrakov/socialmesh-backend/internal/domain/reaction"
	"github.com/ostrakov/socialmesh-backend/internal/domain/user"
)

type (
	User      = user.User
	UserToken = auth.UserToken

	ChatSession       = chat.ChatSession
	ChatSessionMember = chat.ChatSessionMember
	Message           = chat.Message

	Post    = feed.Post
	Comment = feed.Comment

	Reaction = reaction.Reaction
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	StatusSent      = chat.StatusSent
	StatusDelivered = chat.StatusDelivered
	StatusRead      = chat.StatusRead

	PostReactionTable    = reaction.PostTable
	CommentReactionTable = reaction.CommentTable
)

package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	feedrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/feed"
	reactionrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/reaction"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type FeedService interface {
	CreatePost(dbc dbctx.Context, id ctxutil.Identity, content string) (*types.Post, error)
	GetPost(dbc dbctx.Context, postID uuid.UUID) (*types.Post, error)
	ListPosts(dbc dbctx.Context, limit int) ([]*types.Post, error)

	// DeletePost removes the post together with its comments and every
	// reaction row targeting the post or those comments, so neither ledger
	// keeps entries for targets that no longer exist.
	DeletePost(dbc dbctx.Context, id ctxutil.Identity, postID uuid.UUID) error

	CreateComment(dbc dbctx.Context, id ctxutil.Identity, postID uuid.UUID, content string) (*types.Comment, error)
	GetComment(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error)
	ListComments(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error)
	DeleteComment(dbc dbctx.Context, id ctxutil.Identity, commentID uuid.UUID) error
}

type feedService struct {
	db               *gorm.DB
	log              *logger.Logger
	auth             AuthService
	posts            feedrepo.PostRepo
	comments         feedrepo.CommentRepo
	postReactions    reactionrepo.ReactionRepo
	commentReactions reactionrepo.ReactionRepo
}

func NewFeedService(
	db *gorm.DB,
	baseLog *logger.Logger,
	auth AuthService,
	posts feedrepo.PostRepo,
	comments feedrepo.CommentRepo,
	postReactions reactionrepo.ReactionRepo,
	commentReactions reactionrepo.ReactionRepo,
) FeedService {
	return &feedService{
		db:               db,
		log:              baseLog.With("service", "FeedService"),
		auth:             auth,
		posts:            posts,
		comments:         comments,
		postReactions:    postReactions,
		commentReactions: commentReactions,
	}
}

func (s *feedService) CreatePost(dbc dbctx.Context, id ctxutil.Identity, content string) (*types.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.New(apperr.Validation, "content is required")
	}
	row, err := s.posts.Create(dbc, &types.Post{
		ID:       uuid.New(),
		AuthorID: id.UserID,
		Content:  content,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create post", err)
	}
	return row, nil
}

func (s *feedService) GetPost(dbc dbctx.Context, postID uuid.UUID) (*types.Post, error) {
	row, err := s.posts.GetByID(dbc, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "post not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load post", err)
	}
	return row, nil
}

func (s *feedService) ListPosts(dbc dbctx.Context, limit int) ([]*types.Post, error) {
	rows, err := s.posts.List(dbc, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list posts", err)
	}
	return rows, nil
}

func (s *feedService) DeletePost(dbc dbctx.Context, id ctxutil.Identity, postID uuid.UUID) error {
	post, err := s.GetPost(dbc, postID)
	if err != nil {
		return err
	}
	if err := s.auth.AuthorizeOwner(id, post.AuthorID); err != nil {
		return err
	}

	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)

		commentIDs, err := s.comments.IDsByPost(repoCtx, postID)
		if err != nil {
			return err
		}
		if err := s.commentReactions.DeleteByTargets(repoCtx, commentIDs); err != nil {
			return err
		}
		if err := s.comments.DeleteByPost(repoCtx, postID); err != nil {
			return err
		}
		if err := s.postReactions.DeleteByTargets(repoCtx, []uuid.UUID{postID}); err != nil {
			return err
		}
		return s.posts.Delete(repoCtx, postID)
	})
	if txErr != nil {
		return apperr.Wrap(apperr.Internal, "delete post", txErr)
	}
	s.log.Info("post deleted", "post_id", postID)
	return nil
}

func (s *feedService) CreateComment(dbc dbctx.Context, id ctxutil.Identity, postID uuid.UUID, content string) (*types.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.New(apperr.Validation, "content is required")
	}
	if _, err := s.GetPost(dbc, postID); err != nil {
		return nil, err
	}
	row, err := s.comments.Create(dbc, &types.Comment{
		ID:       uuid.New(),
		PostID:   postID,
		AuthorID: id.UserID,
		Content:  content,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create comment", err)
	}
	return row, nil
}

func (s *feedService) GetComment(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error) {
	row, err := s.comments.GetByID(dbc, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "comment not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load comment", err)
	}
	return row, nil
}

func (s *feedService) ListComments(dbc dbctx.Context, postID uuid.UUID) ([]*types.Comment, error) {
	if _, err := s.GetPost(dbc, postID); err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByPost(dbc, postID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list comments", err)
	}
	return rows, nil
}

func (s *feedService) DeleteComment(dbc dbctx.Context, id ctxutil.Identity, commentID uuid.UUID) error {
	comment, err := s.GetComment(dbc, commentID)
	if err != nil {
		return err
	}
	if err := s.auth.AuthorizeOwner(id, comment.AuthorID); err != nil {
		return err
	}

	txErr := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbc.WithTx(tx)
		if err := s.commentReactions.DeleteByTargets(repoCtx, []uuid.UUID{commentID}); err != nil {
			return err
		}
		return s.comments.Delete(repoCtx, commentID)
	})
	if txErr != nil {
		return apperr.Wrap(apperr.Internal, "delete comment", txErr)
	}
	return nil
}

package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reactionrepo "github.com/ostrakov/socialmesh-backend/internal/data/repos/reaction"
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"github.com/ostrakov/socialmesh-backend/internal/domain/reaction"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/ctxutil"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/dbctx"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

// TargetExistsFunc reports whether a reaction target (post or comment) still
// exists. Each ledger instance gets the check for its own target kind.
type TargetExistsFunc func(dbc dbctx.Context, id uuid.UUID) (bool, error)

type ReactionService interface {
	// Set records the caller's reaction to the target. Repeating the same
	// reaction is a no-op and re-reacting with a different type replaces the
	// previous one in place; either way the caller holds at most one
	// reaction per target.
	Set(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID, reactionType string) (*types.Reaction, error)

	// Remove deletes the caller's reaction. Removing a reaction that is not
	// there reports NotFound.
	Remove(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID) error
	Get(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID) (*types.Reaction, error)
	ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Reaction, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Reaction, error)

	// CountByTarget tallies reactions on the target, optionally filtered to
	// one type. Counts are always recomputed from the ledger rows.
	CountByTarget(dbc dbctx.Context, targetID uuid.UUID, reactionType string) (int64, error)
}

type reactionService struct {
	log          *logger.Logger
	reactions    reactionrepo.ReactionRepo
	targetExists TargetExistsFunc
}

// NewReactionService builds one ledger's service. name distinguishes the two
// instances in logs ("post" or "comment").
func NewReactionService(
	baseLog *logger.Logger,
	name string,
	reactions reactionrepo.ReactionRepo,
	targetExists TargetExistsFunc,
) ReactionService {
	return &reactionService{
		log:          baseLog.With("service", "ReactionService", "ledger", name),
		reactions:    reactions,
		targetExists: targetExists,
	}
}

func (s *reactionService) requireTarget(dbc dbctx.Context, targetID uuid.UUID) error {
	ok, err := s.targetExists(dbc, targetID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "check target", err)
	}
	if !ok {
		return apperr.New(apperr.NotFound, "target not found")
	}
	return nil
}

func (s *reactionService) Set(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID, reactionType string) (*types.Reaction, error) {
	if !reaction.ValidType(reactionType) {
		return nil, apperr.Newf(apperr.Validation, "unknown reaction type %q", reactionType)
	}
	if err := s.requireTarget(dbc, targetID); err != nil {
		return nil, err
	}

	row, err := s.reactions.Upsert(dbc, &types.Reaction{
		UserID:   id.UserID,
		TargetID: targetID,
		Type:     reactionType,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "upsert reaction", err)
	}
	return row, nil
}

func (s *reactionService) Remove(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID) error {
	removed, err := s.reactions.DeleteByUserAndTarget(dbc, id.UserID, targetID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete reaction", err)
	}
	if !removed {
		return apperr.New(apperr.NotFound, "no reaction to remove")
	}
	return nil
}

func (s *reactionService) Get(dbc dbctx.Context, id ctxutil.Identity, targetID uuid.UUID) (*types.Reaction, error) {
	row, err := s.reactions.GetByUserAndTarget(dbc, id.UserID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "reaction not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load reaction", err)
	}
	return row, nil
}

func (s *reactionService) ListByTarget(dbc dbctx.Context, targetID uuid.UUID) ([]*types.Reaction, error) {
	if err := s.requireTarget(dbc, targetID); err != nil {
		return nil, err
	}
	rows, err := s.reactions.ListByTarget(dbc, targetID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list reactions", err)
	}
	return rows, nil
}

func (s *reactionService) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Reaction, error) {
	rows, err := s.reactions.ListByUser(dbc, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list reactions", err)
	}
	return rows, nil
}

func (s *reactionService) CountByTarget(dbc dbctx.Context, targetID uuid.UUID, reactionType string) (int64, error) {
	if reactionType != "" && !reaction.ValidType(reactionType) {
		return 0, apperr.Newf(apperr.Validation, "unknown reaction type %q", reactionType)
	}
	if err := s.requireTarget(dbc, targetID); err != nil {
		return 0, err
	}
	n, err := s.reactions.CountByTarget(dbc, targetID, reactionType)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count reactions", err)
	}
	return n, nil
}

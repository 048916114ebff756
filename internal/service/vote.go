package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/validate"
)

// VoteService coordinates vote upserts and the target's vote counters.
type VoteService struct {
	tx           repository.TxRunner
	votes        repository.VoteRepository
	questions    repository.QuestionRepository
	answers      repository.AnswerRepository
	interactions repository.InteractionRepository
	logger       *slog.Logger
}

// NewVoteService wires a VoteService.
func NewVoteService(
	tx repository.TxRunner,
	votes repository.VoteRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	interactions repository.InteractionRepository,
	logger *slog.Logger,
) *VoteService {
	return &VoteService{
		tx:           tx,
		votes:        votes,
		questions:    questions,
		answers:      answers,
		interactions: interactions,
		logger:       logger,
	}
}

// VoteInput is the declared shape for casting a vote.
type VoteInput struct {
	ActionID   string `json:"actionId" validate:"required"`
	ActionType string `json:"actionType" validate:"required,oneof=question answer"`
	VoteType   string `json:"voteType" validate:"required,oneof=upvote downvote"`
}

// VoteState is the caller's current vote on one target.
type VoteState struct {
	HasUpvoted   bool `json:"hasUpvoted"`
	HasDownvoted bool `json:"hasDownvoted"`
}

// Cast applies a vote as an upsert with toggle semantics, atomically with
// the counter adjustments on the target document:
//
//	no existing vote        → insert, counter +1
//	same type again         → remove (toggle off), counter -1
//	opposite type           → flip it, old counter -1, new counter +1
//
// All counter movement happens via $inc inside the transaction; a vanished
// target makes the increment report NotFound, which aborts the whole unit.
func (s *VoteService) Cast(ctx context.Context, callerID string, in VoteInput) (*VoteState, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	author, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	actionID, err := parseObjectID(in.ActionID, in.ActionType)
	if err != nil {
		return nil, err
	}

	state := &VoteState{}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.votes.GetByTarget(ctx, author, actionID, in.ActionType)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			// First vote on this target.
			if err := s.votes.Insert(ctx, &model.Vote{
				Author:     author,
				ActionID:   actionID,
				ActionType: in.ActionType,
				VoteType:   in.VoteType,
			}); err != nil {
				return err
			}
			if err := s.adjustCounter(ctx, actionID, in.ActionType, in.VoteType, 1); err != nil {
				return err
			}
			state.HasUpvoted = in.VoteType == model.VoteUpvote
			state.HasDownvoted = in.VoteType == model.VoteDownvote
			return s.logVote(ctx, author, actionID, in.ActionType, in.VoteType)

		case err != nil:
			return err

		case existing.VoteType == in.VoteType:
			// Same direction again: toggle the vote off.
			if err := s.votes.Delete(ctx, existing.ID); err != nil {
				return err
			}
			return s.adjustCounter(ctx, actionID, in.ActionType, in.VoteType, -1)

		default:
			// Opposite direction: flip the vote and move both counters.
			if err := s.votes.UpdateType(ctx, existing.ID, in.VoteType); err != nil {
				return err
			}
			if err := s.adjustCounter(ctx, actionID, in.ActionType, existing.VoteType, -1); err != nil {
				return err
			}
			if err := s.adjustCounter(ctx, actionID, in.ActionType, in.VoteType, 1); err != nil {
				return err
			}
			state.HasUpvoted = in.VoteType == model.VoteUpvote
			state.HasDownvoted = in.VoteType == model.VoteDownvote
			return s.logVote(ctx, author, actionID, in.ActionType, in.VoteType)
		}
	})
	if err != nil {
		s.logger.Error("failed to cast vote",
			slog.String("target", in.ActionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("casting vote: %w", err)
	}

	return state, nil
}

// State returns the caller's current vote on a target.
func (s *VoteService) State(ctx context.Context, callerID, actionIDHex, actionType string) (*VoteState, error) {
	if actionType != model.ActionQuestion && actionType != model.ActionAnswer {
		return nil, apperror.ValidationFailed("actionType", "actionType must be one of: question answer")
	}

	author, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	actionID, err := parseObjectID(actionIDHex, actionType)
	if err != nil {
		return nil, err
	}

	vote, err := s.votes.GetByTarget(ctx, author, actionID, actionType)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &VoteState{}, nil
		}
		return nil, fmt.Errorf("fetching vote state: %w", err)
	}

	return &VoteState{
		HasUpvoted:   vote.VoteType == model.VoteUpvote,
		HasDownvoted: vote.VoteType == model.VoteDownvote,
	}, nil
}

// adjustCounter moves the matching counter field on the target document.
func (s *VoteService) adjustCounter(ctx context.Context, actionID primitive.ObjectID, actionType, voteType string, delta int) error {
	field := "upvotes"
	if voteType == model.VoteDownvote {
		field = "downvotes"
	}

	if actionType == model.ActionQuestion {
		return s.questions.IncrementCounter(ctx, actionID, field, delta)
	}
	return s.answers.IncrementCounter(ctx, actionID, field, delta)
}

func (s *VoteService) logVote(ctx context.Context, author, actionID primitive.ObjectID, actionType, voteType string) error {
	action := model.InteractionUpvote
	if voteType == model.VoteDownvote {
		action = model.InteractionDownvote
	}

	return s.interactions.Insert(ctx, &model.Interaction{
		User:       author,
		Action:     action,
		ActionID:   actionID,
		ActionType: actionType,
	})
}

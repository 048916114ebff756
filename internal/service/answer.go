package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/validate"
)

// AnswerService coordinates answer writes and the parent question's answer
// counter.
type AnswerService struct {
	tx           repository.TxRunner
	answers      repository.AnswerRepository
	questions    repository.QuestionRepository
	votes        repository.VoteRepository
	interactions repository.InteractionRepository
	logger       *slog.Logger
}

// NewAnswerService wires an AnswerService.
func NewAnswerService(
	tx repository.TxRunner,
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	votes repository.VoteRepository,
	interactions repository.InteractionRepository,
	logger *slog.Logger,
) *AnswerService {
	return &AnswerService{
		tx:           tx,
		answers:      answers,
		questions:    questions,
		votes:        votes,
		interactions: interactions,
		logger:       logger,
	}
}

// CreateAnswerInput is the declared shape for answer creation.
type CreateAnswerInput struct {
	QuestionID string `json:"questionId" validate:"required"`
	Content    string `json:"content" validate:"required,min=100"`
}

// Create inserts the answer and increments the parent question's answers
// counter by exactly one, as a single transactional unit: a reader can
// never observe the answer without the counter bump, nor the bump without
// the answer. A missing question aborts with NotFound before the insert.
func (s *AnswerService) Create(ctx context.Context, callerID string, in CreateAnswerInput) (*model.Answer, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	author, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	questionID, err := parseObjectID(in.QuestionID, "question")
	if err != nil {
		return nil, err
	}

	answer := &model.Answer{
		Author:   author,
		Question: questionID,
		Content:  in.Content,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.questions.GetByID(ctx, questionID); err != nil {
			return err
		}
		if err := s.answers.Insert(ctx, answer); err != nil {
			return err
		}
		if err := s.questions.IncrementCounter(ctx, questionID, "answers", 1); err != nil {
			return err
		}
		return s.interactions.Insert(ctx, &model.Interaction{
			User:       author,
			Action:     model.InteractionPostAnswer,
			ActionID:   answer.ID,
			ActionType: model.ActionAnswer,
		})
	})
	if err != nil {
		s.logger.Error("failed to create answer",
			slog.String("question", in.QuestionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating answer: %w", err)
	}

	s.logger.Info("answer created",
		slog.String("id", answer.ID.Hex()),
		slog.String("question", questionID.Hex()),
	)
	return answer, nil
}

// Delete removes an answer and reverses the parent counter in the same
// transaction. Only the answer's author may delete it.
func (s *AnswerService) Delete(ctx context.Context, callerID, answerID string) error {
	caller, err := callerObjectID(callerID)
	if err != nil {
		return err
	}
	id, err := parseObjectID(answerID, "answer")
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		answer, err := s.answers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if answer.Author != caller {
			return apperror.Forbidden("only the author can delete this answer")
		}

		if err := s.answers.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.questions.IncrementCounter(ctx, answer.Question, "answers", -1); err != nil {
			return err
		}
		return s.votes.DeleteByAction(ctx, id, model.ActionAnswer)
	})
	if err != nil {
		return fmt.Errorf("deleting answer %s: %w", answerID, err)
	}

	s.logger.Info("answer deleted", slog.String("id", id.Hex()))
	return nil
}

// ListByQuestion returns a page of a question's answers.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string, opts repository.ListOptions) ([]model.Answer, int64, error) {
	id, err := parseObjectID(questionID, "question")
	if err != nil {
		return nil, 0, err
	}

	opts = clampListOptions(opts)
	answers, total, err := s.answers.ListByQuestion(ctx, id, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing answers for question %s: %w", questionID, err)
	}
	return answers, total, nil
}

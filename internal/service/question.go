// Package service contains the business logic layer: validation, authorization,
// and the transactional write coordination that keeps derived counters and
// join rows consistent.
//
// THE LAYERING (same shape throughout the app):
//
//	Handler (HTTP)      → parses requests, writes the response envelope
//	Service (this pkg)  → validates, authorizes, coordinates writes
//	Repository (data)   → talks to MongoDB
//
// Services depend on repository interfaces, never on the mongodb package, so
// tests substitute in-memory mocks and the coordination logic runs without a
// database.
//
// TRANSACTIONAL UNITS:
// Every multi-step write goes through TxRunner.WithTransaction. The ctx the
// callback receives is the transaction-scope handle; it MUST be the ctx
// passed to every repository call inside the unit. Any error aborts the
// whole unit — there is no partial commit and no automatic retry.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/validate"
)

// Pagination bounds shared by the list operations.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QuestionService coordinates question writes and their tag bookkeeping.
type QuestionService struct {
	tx           repository.TxRunner
	questions    repository.QuestionRepository
	tags         repository.TagRepository
	tagQuestions repository.TagQuestionRepository
	answers      repository.AnswerRepository
	votes        repository.VoteRepository
	interactions repository.InteractionRepository
	logger       *slog.Logger
}

// NewQuestionService wires a QuestionService. The caller decides which
// implementations to inject (MongoDB in main, mocks in tests).
func NewQuestionService(
	tx repository.TxRunner,
	questions repository.QuestionRepository,
	tags repository.TagRepository,
	tagQuestions repository.TagQuestionRepository,
	answers repository.AnswerRepository,
	votes repository.VoteRepository,
	interactions repository.InteractionRepository,
	logger *slog.Logger,
) *QuestionService {
	return &QuestionService{
		tx:           tx,
		questions:    questions,
		tags:         tags,
		tagQuestions: tagQuestions,
		answers:      answers,
		votes:        votes,
		interactions: interactions,
		logger:       logger,
	}
}

// CreateQuestionInput is the declared shape for question creation.
type CreateQuestionInput struct {
	Title   string   `json:"title" validate:"required,min=5,max=100"`
	Content string   `json:"content" validate:"required,max=10000"`
	Tags    []string `json:"tags" validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// EditQuestionInput is CreateQuestionInput plus the target id.
type EditQuestionInput struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Title      string   `json:"title" validate:"required,min=5,max=100"`
	Content    string   `json:"content" validate:"required,max=10000"`
	Tags       []string `json:"tags" validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// Create validates and creates a question with its tag associations.
//
// Inside one transaction:
//  1. Insert the question with the caller as author and an empty tag list
//  2. For each requested tag name, find-or-create-with-increment (atomic
//     upsert — see TagRepository.FindOrCreateIncrement for why)
//  3. Insert one tag_questions join row per resolved tag
//  4. Write the resolved tag ids onto the question
//  5. Append an ask_question interaction
//
// Any failure aborts the whole unit, so a half-tagged question or a bumped
// tag counter without its join row can never be observed.
func (s *QuestionService) Create(ctx context.Context, callerID string, in CreateQuestionInput) (*model.Question, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	author, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}

	// Requested tags are a set: "React" and "react" in one request collapse
	// to a single association, keeping the first spelling.
	names := dedupeTagNames(in.Tags)
	if len(names) == 0 {
		return nil, apperror.ValidationFailed("tags", "at least one non-empty tag is required")
	}

	question := &model.Question{
		Title:   strings.TrimSpace(in.Title),
		Content: in.Content,
		Author:  author,
		Tags:    []primitive.ObjectID{},
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.questions.Insert(ctx, question); err != nil {
			return err
		}

		for _, name := range names {
			tag, err := s.tags.FindOrCreateIncrement(ctx, name)
			if err != nil {
				return err
			}
			if err := s.tagQuestions.Insert(ctx, &model.TagQuestion{
				Tag:      tag.ID,
				Question: question.ID,
			}); err != nil {
				return err
			}
			question.Tags = append(question.Tags, tag.ID)
		}

		if err := s.questions.Update(ctx, question); err != nil {
			return err
		}

		return s.interactions.Insert(ctx, &model.Interaction{
			User:       author,
			Action:     model.InteractionAsk,
			ActionID:   question.ID,
			ActionType: model.ActionQuestion,
		})
	})
	if err != nil {
		s.logger.Error("failed to create question",
			slog.String("author", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.logger.Info("question created",
		slog.String("id", question.ID.Hex()),
		slog.String("author", callerID),
		slog.Int("tags", len(question.Tags)),
	)
	return question, nil
}

// Edit validates and applies a question edit, reconciling the tag set.
//
// The authorization check runs inside the transaction before any write, so
// a forbidden edit performs zero writes. The tag delta is computed
// case-insensitively against the stored tags:
//
//	tagsToAdd    = requested names not among the current tags
//	tagsToRemove = current tags not among the requested names
//
// Adds reuse the same atomic find-or-create-with-increment as creation;
// removals decrement the usage counter (floored at zero in the repository),
// delete the join row, and drop the id from the question's tag list.
// Title, content, tag adds, and tag removals commit or abort together.
func (s *QuestionService) Edit(ctx context.Context, callerID string, in EditQuestionInput) (*model.Question, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	caller, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	questionID, err := parseObjectID(in.QuestionID, "question")
	if err != nil {
		return nil, err
	}

	names := dedupeTagNames(in.Tags)
	if len(names) == 0 {
		return nil, apperror.ValidationFailed("tags", "at least one non-empty tag is required")
	}

	var question *model.Question
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		question, err = s.questions.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if question.Author != caller {
			return apperror.Forbidden("only the author can edit this question")
		}

		current, err := s.tags.GetByIDs(ctx, question.Tags)
		if err != nil {
			return err
		}

		// Index current tags and requested names by their lowercase key.
		currentByKey := make(map[string]model.Tag, len(current))
		for _, t := range current {
			currentByKey[strings.ToLower(t.Name)] = t
		}
		requested := make(map[string]struct{}, len(names))
		for _, name := range names {
			requested[strings.ToLower(name)] = struct{}{}
		}

		dirty := false

		// Additions: requested but not present.
		for _, name := range names {
			if _, ok := currentByKey[strings.ToLower(name)]; ok {
				continue
			}
			tag, err := s.tags.FindOrCreateIncrement(ctx, name)
			if err != nil {
				return err
			}
			if err := s.tagQuestions.Insert(ctx, &model.TagQuestion{
				Tag:      tag.ID,
				Question: question.ID,
			}); err != nil {
				return err
			}
			question.Tags = append(question.Tags, tag.ID)
			dirty = true
		}

		// Removals: present but no longer requested.
		for key, tag := range currentByKey {
			if _, ok := requested[key]; ok {
				continue
			}
			if err := s.tags.DecrementUsage(ctx, tag.ID); err != nil {
				return err
			}
			if err := s.tagQuestions.DeleteByTagAndQuestion(ctx, tag.ID, question.ID); err != nil {
				return err
			}
			question.Tags = removeID(question.Tags, tag.ID)
			dirty = true
		}

		// Title/content only when actually changed — no-op write avoidance.
		if title := strings.TrimSpace(in.Title); title != question.Title {
			question.Title = title
			dirty = true
		}
		if in.Content != question.Content {
			question.Content = in.Content
			dirty = true
		}

		if !dirty {
			return nil
		}
		return s.questions.Update(ctx, question)
	})
	if err != nil {
		return nil, fmt.Errorf("editing question %s: %w", in.QuestionID, err)
	}

	s.logger.Info("question edited", slog.String("id", questionID.Hex()))
	return question, nil
}

// Delete removes a question and unwinds everything hanging off it: tag
// counters, join rows, answers, and votes, all in one transaction so the
// tag-count invariant holds across deletes too.
func (s *QuestionService) Delete(ctx context.Context, callerID, questionID string) error {
	caller, err := callerObjectID(callerID)
	if err != nil {
		return err
	}
	id, err := parseObjectID(questionID, "question")
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		question, err := s.questions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if question.Author != caller {
			return apperror.Forbidden("only the author can delete this question")
		}

		for _, tagID := range question.Tags {
			if err := s.tags.DecrementUsage(ctx, tagID); err != nil {
				return err
			}
		}
		if err := s.tagQuestions.DeleteByQuestion(ctx, id); err != nil {
			return err
		}
		if err := s.answers.DeleteByQuestion(ctx, id); err != nil {
			return err
		}
		if err := s.votes.DeleteByAction(ctx, id, model.ActionQuestion); err != nil {
			return err
		}
		if err := s.questions.Delete(ctx, id); err != nil {
			return err
		}

		return s.interactions.Insert(ctx, &model.Interaction{
			User:       caller,
			Action:     model.InteractionDelete,
			ActionID:   id,
			ActionType: model.ActionQuestion,
		})
	})
	if err != nil {
		return fmt.Errorf("deleting question %s: %w", questionID, err)
	}

	s.logger.Info("question deleted", slog.String("id", id.Hex()))
	return nil
}

// View fetches a question, bumps its view counter, and logs a view
// interaction for signed-in callers. The bump is a single atomic $inc; it
// doesn't need a multi-step transaction.
func (s *QuestionService) View(ctx context.Context, viewerID, questionID string) (*model.Question, error) {
	id, err := parseObjectID(questionID, "question")
	if err != nil {
		return nil, err
	}

	if err := s.questions.IncrementCounter(ctx, id, "views", 1); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerID != "" {
		if viewer, err := callerObjectID(viewerID); err == nil {
			// Best-effort: a failed log line must not fail the read.
			if err := s.interactions.Insert(ctx, &model.Interaction{
				User:       viewer,
				Action:     model.InteractionView,
				ActionID:   id,
				ActionType: model.ActionQuestion,
			}); err != nil {
				s.logger.Warn("failed to log view interaction", slog.String("error", err.Error()))
			}
		}
	}

	return question, nil
}

// List returns a page of questions.
func (s *QuestionService) List(ctx context.Context, opts repository.ListOptions) ([]model.Question, int64, error) {
	opts = clampListOptions(opts)
	questions, total, err := s.questions.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing questions: %w", err)
	}
	return questions, total, nil
}

// ListByTag returns the page of questions associated with a tag, resolved
// through the join rows.
func (s *QuestionService) ListByTag(ctx context.Context, tagID string, opts repository.ListOptions) ([]model.Question, int64, error) {
	id, err := parseObjectID(tagID, "tag")
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.tags.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}

	questionIDs, err := s.tagQuestions.ListQuestionIDsByTag(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	opts = clampListOptions(opts)
	questions, total, err := s.questions.ListByIDs(ctx, questionIDs, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing questions for tag %s: %w", tagID, err)
	}
	return questions, total, nil
}

// dedupeTagNames trims, drops empties, and collapses case-insensitive
// duplicates while preserving request order and the first spelling seen.
func dedupeTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// clampListOptions enforces sane pagination bounds so a caller can't
// request a million rows.
func clampListOptions(opts repository.ListOptions) repository.ListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	return opts
}

// parseObjectID converts a hex id from the URL/body into an ObjectID.
// Malformed ids read as "no such resource", not as a validation error —
// the resource namespace simply doesn't contain them.
func parseObjectID(hex, resource string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(resource, hex)
	}
	return id, nil
}

// callerObjectID converts the authenticated caller's id (the JWT subject).
// A malformed subject means the token is bogus → unauthorized.
func callerObjectID(callerID string) (primitive.ObjectID, error) {
	if callerID == "" {
		return primitive.NilObjectID, apperror.Unauthorized("")
	}
	id, err := primitive.ObjectIDFromHex(callerID)
	if err != nil {
		return primitive.NilObjectID, apperror.Unauthorized("invalid caller identity")
	}
	return id, nil
}

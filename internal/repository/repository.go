// Package repository declares the storage interfaces the service layer is
// written against. The mongodb subpackage implements them; tests substitute
// in-memory mocks.
//
// TRANSACTION SCOPE:
// Multi-step writes (question create/edit with tag bookkeeping, sign-in
// upserts, answer creation with counter maintenance) go through TxRunner.
// The ctx handed to the callback carries the transactional session, and the
// same ctx must be threaded through every repository call that should join
// the atomic unit. A repo call with a different ctx silently escapes the
// transaction — always pass the callback's ctx down.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/devforum/internal/model"
)

// TxRunner executes fn as one all-or-nothing unit. The implementation
// starts a session, runs fn with a session-bound ctx, commits when fn
// returns nil, and aborts otherwise. No partial state survives a failure,
// and nothing fn wrote is visible to other readers before commit.
//
// There is no automatic retry: a write conflict aborts the unit and the
// error surfaces to the caller.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListOptions carries pagination and filtering for collection reads.
type ListOptions struct {
	Page     int    // 1-based
	PageSize int
	Query    string // optional text filter
	Sort     string // resource-specific sort key, e.g. "newest"
}

// Skip returns the number of documents to skip for the page.
func (o ListOptions) Skip() int64 {
	if o.Page <= 1 {
		return 0
	}
	return int64(o.Page-1) * int64(o.PageSize)
}

type UserRepository interface {
	Insert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateFields writes only the given bson fields — the minimal-diff path
	// used by the OAuth profile sync. A nil/empty map must be a no-op.
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) error
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, opts ListOptions) ([]model.User, int64, error)
}

type AccountRepository interface {
	Insert(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Account, error)
	// GetByProvider looks up the unique (provider, providerAccountId) pair.
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*model.Account, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, opts ListOptions) ([]model.Account, int64, error)
}

type QuestionRepository interface {
	Insert(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	// IncrementCounter atomically adds delta to one of the question's
	// counter fields ("answers", "upvotes", "downvotes", "views"). Returns
	// apperror.ErrNotFound when no document matched.
	IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, opts ListOptions) ([]model.Question, int64, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID, opts ListOptions) ([]model.Question, int64, error)
}

type TagRepository interface {
	// FindOrCreateIncrement is the race-safe find-or-create: locate the tag
	// by case-insensitive name and add 1 to its usage counter, creating the
	// tag (usage seeded at 1, original casing preserved) when absent. Must
	// be a single atomic upsert-with-increment, not a read-then-write pair.
	FindOrCreateIncrement(ctx context.Context, name string) (*model.Tag, error)
	// DecrementUsage subtracts 1 from the tag's usage counter, flooring at
	// zero so drifted data can never drive the count negative.
	DecrementUsage(ctx context.Context, id primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Tag, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Tag, error)
	List(ctx context.Context, opts ListOptions) ([]model.Tag, int64, error)
}

type TagQuestionRepository interface {
	Insert(ctx context.Context, tq *model.TagQuestion) error
	DeleteByTagAndQuestion(ctx context.Context, tagID, questionID primitive.ObjectID) error
	DeleteByQuestion(ctx context.Context, questionID primitive.ObjectID) error
	ListQuestionIDsByTag(ctx context.Context, tagID primitive.ObjectID) ([]primitive.ObjectID, error)
	CountByTag(ctx context.Context, tagID primitive.ObjectID) (int64, error)
}

type AnswerRepository interface {
	Insert(ctx context.Context, a *model.Answer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Answer, error)
	IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByQuestion(ctx context.Context, questionID primitive.ObjectID) error
	ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts ListOptions) ([]model.Answer, int64, error)
}

type VoteRepository interface {
	Insert(ctx context.Context, v *model.Vote) error
	// GetByTarget returns the caller's active vote on one target, or
	// apperror.ErrNotFound when they haven't voted.
	GetByTarget(ctx context.Context, author, actionID primitive.ObjectID, actionType string) (*model.Vote, error)
	UpdateType(ctx context.Context, id primitive.ObjectID, voteType string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByAction(ctx context.Context, actionID primitive.ObjectID, actionType string) error
}

// InteractionRepository is append-only from the write path's perspective.
type InteractionRepository interface {
	Insert(ctx context.Context, i *model.Interaction) error
}

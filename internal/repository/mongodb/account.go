package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo stores provider accounts.
type AccountRepo struct {
	db *DB
}

// Accounts returns the account repository backed by this handle.
func (db *DB) Accounts() *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) col() *mongo.Collection {
	return r.db.db.Collection(collAccounts)
}

// Insert creates an account. The unique (provider, providerAccountId) index
// turns a duplicate into a Conflict rather than a second row.
func (r *AccountRepo) Insert(ctx context.Context, a *model.Account) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("account", fmt.Sprintf("provider %s", a.Provider))
		}
		return fmt.Errorf("mongodb: inserting account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Account, error) {
	var a model.Account
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("account", id.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching account %s: %w", id.Hex(), err)
	}
	return &a, nil
}

// GetByProvider looks up the unique (provider, providerAccountId) pair.
func (r *AccountRepo) GetByProvider(ctx context.Context, provider, providerAccountID string) (*model.Account, error) {
	var a model.Account
	err := r.col().FindOne(ctx, bson.M{
		"provider":          provider,
		"providerAccountId": providerAccountID,
	}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("account", fmt.Sprintf("%s/%s", provider, providerAccountID))
		}
		return nil, fmt.Errorf("mongodb: fetching account %s/%s: %w", provider, providerAccountID, err)
	}
	return &a, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting account %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("account", id.Hex())
	}
	return nil
}

func (r *AccountRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Account, int64, error) {
	filter := bson.M{}
	if opts.Query != "" {
		filter["provider"] = opts.Query
	}

	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: counting accounts: %w", err)
	}

	cur, err := r.col().Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize)))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: listing accounts: %w", err)
	}
	defer cur.Close(ctx)

	accounts := []model.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decoding accounts: %w", err)
	}
	return accounts, total, nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

var _ repository.VoteRepository = (*VoteRepo)(nil)

// VoteRepo stores votes.
type VoteRepo struct {
	db *DB
}

// Votes returns the vote repository backed by this handle.
func (db *DB) Votes() *VoteRepo { return &VoteRepo{db: db} }

func (r *VoteRepo) col() *mongo.Collection {
	return r.db.db.Collection(collVotes)
}

// Insert creates a vote. The unique (author, actionId, actionType) index
// guarantees at most one active vote per user per target.
func (r *VoteRepo) Insert(ctx context.Context, v *model.Vote) error {
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("vote", fmt.Sprintf("%s %s", v.ActionType, v.ActionID.Hex()))
		}
		return fmt.Errorf("mongodb: inserting vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) GetByTarget(ctx context.Context, author, actionID primitive.ObjectID, actionType string) (*model.Vote, error) {
	var v model.Vote
	err := r.col().FindOne(ctx, bson.M{
		"author":     author,
		"actionId":   actionID,
		"actionType": actionType,
	}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("vote", actionID.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching vote: %w", err)
	}
	return &v, nil
}

func (r *VoteRepo) UpdateType(ctx context.Context, id primitive.ObjectID, voteType string) error {
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"voteType":  voteType,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("mongodb: updating vote %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("vote", id.Hex())
	}
	return nil
}

func (r *VoteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting vote %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("vote", id.Hex())
	}
	return nil
}

// DeleteByAction removes every vote on a target. Called when the target
// itself is deleted.
func (r *VoteRepo) DeleteByAction(ctx context.Context, actionID primitive.ObjectID, actionType string) error {
	_, err := r.col().DeleteMany(ctx, bson.M{"actionId": actionID, "actionType": actionType})
	if err != nil {
		return fmt.Errorf("mongodb: deleting votes for %s %s: %w", actionType, actionID.Hex(), err)
	}
	return nil
}

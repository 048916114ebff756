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

var _ repository.AnswerRepository = (*AnswerRepo)(nil)

// AnswerRepo stores answers.
type AnswerRepo struct {
	db *DB
}

// Answers returns the answer repository backed by this handle.
func (db *DB) Answers() *AnswerRepo { return &AnswerRepo{db: db} }

func (r *AnswerRepo) col() *mongo.Collection {
	return r.db.db.Collection(collAnswers)
}

func (r *AnswerRepo) Insert(ctx context.Context, a *model.Answer) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, a); err != nil {
		return fmt.Errorf("mongodb: inserting answer: %w", err)
	}
	return nil
}

func (r *AnswerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Answer, error) {
	var a model.Answer
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("answer", id.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching answer %s: %w", id.Hex(), err)
	}
	return &a, nil
}

func (r *AnswerRepo) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int) error {
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return fmt.Errorf("mongodb: incrementing answer %s %s: %w", id.Hex(), field, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("answer", id.Hex())
	}
	return nil
}

func (r *AnswerRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting answer %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("answer", id.Hex())
	}
	return nil
}

func (r *AnswerRepo) DeleteByQuestion(ctx context.Context, questionID primitive.ObjectID) error {
	_, err := r.col().DeleteMany(ctx, bson.M{"question": questionID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting answers for question %s: %w", questionID.Hex(), err)
	}
	return nil
}

// ListByQuestion returns a page of a question's answers plus the unpaged
// total. Sort keys: "latest" (default), "oldest", "popular" (most upvoted).
func (r *AnswerRepo) ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts repository.ListOptions) ([]model.Answer, int64, error) {
	filter := bson.M{"question": questionID}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	switch opts.Sort {
	case "oldest":
		sort = bson.D{{Key: "createdAt", Value: 1}}
	case "popular":
		sort = bson.D{{Key: "upvotes", Value: -1}}
	}

	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: counting answers: %w", err)
	}

	cur, err := r.col().Find(ctx, filter, options.Find().
		SetSort(sort).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize)))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: listing answers: %w", err)
	}
	defer cur.Close(ctx)

	answers := []model.Answer{}
	if err := cur.All(ctx, &answers); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decoding answers: %w", err)
	}
	return answers, total, nil
}

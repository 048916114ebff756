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

var _ repository.QuestionRepository = (*QuestionRepo)(nil)

// QuestionRepo stores questions.
type QuestionRepo struct {
	db *DB
}

// Questions returns the question repository backed by this handle.
func (db *DB) Questions() *QuestionRepo { return &QuestionRepo{db: db} }

func (r *QuestionRepo) col() *mongo.Collection {
	return r.db.db.Collection(collQuestions)
}

func (r *QuestionRepo) Insert(ctx context.Context, q *model.Question) error {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	if q.Tags == nil {
		q.Tags = []primitive.ObjectID{}
	}

	if _, err := r.col().InsertOne(ctx, q); err != nil {
		return fmt.Errorf("mongodb: inserting question: %w", err)
	}
	return nil
}

func (r *QuestionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Question, error) {
	var q model.Question
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("question", id.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching question %s: %w", id.Hex(), err)
	}
	return &q, nil
}

// Update persists title, content, and the tag-reference list. Counters are
// deliberately excluded — those only move through IncrementCounter.
func (r *QuestionRepo) Update(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now()

	res, err := r.col().UpdateOne(ctx, bson.M{"_id": q.ID}, bson.M{"$set": bson.M{
		"title":     q.Title,
		"content":   q.Content,
		"tags":      q.Tags,
		"updatedAt": q.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongodb: updating question %s: %w", q.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("question", q.ID.Hex())
	}
	return nil
}

// IncrementCounter atomically adds delta to one counter field. $inc on the
// server is the read-modify-write primitive — there is no window between
// read and write for a concurrent request to slip into.
func (r *QuestionRepo) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int) error {
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return fmt.Errorf("mongodb: incrementing question %s %s: %w", id.Hex(), field, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("question", id.Hex())
	}
	return nil
}

func (r *QuestionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting question %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("question", id.Hex())
	}
	return nil
}

// List returns a page of questions plus the unpaged total. Sort keys:
// "newest" (default), "frequent" (most viewed), "unanswered".
func (r *QuestionRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Question, int64, error) {
	filter := bson.M{}
	if opts.Query != "" {
		re := primitive.Regex{Pattern: escapeRegex(opts.Query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"title": re}, bson.M{"content": re}}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	switch opts.Sort {
	case "frequent":
		sort = bson.D{{Key: "views", Value: -1}}
	case "unanswered":
		filter["answers"] = 0
	}

	return r.find(ctx, filter, sort, opts)
}

// ListByIDs returns the questions whose ids are in the given set — the
// tag → questions read path.
func (r *QuestionRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID, opts repository.ListOptions) ([]model.Question, int64, error) {
	if len(ids) == 0 {
		return []model.Question{}, 0, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if opts.Query != "" {
		filter["title"] = primitive.Regex{Pattern: escapeRegex(opts.Query), Options: "i"}
	}
	return r.find(ctx, filter, bson.D{{Key: "createdAt", Value: -1}}, opts)
}

func (r *QuestionRepo) find(ctx context.Context, filter bson.M, sort bson.D, opts repository.ListOptions) ([]model.Question, int64, error) {
	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: counting questions: %w", err)
	}

	cur, err := r.col().Find(ctx, filter, options.Find().
		SetSort(sort).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize)))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: listing questions: %w", err)
	}
	defer cur.Close(ctx)

	questions := []model.Question{}
	if err := cur.All(ctx, &questions); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decoding questions: %w", err)
	}
	return questions, total, nil
}

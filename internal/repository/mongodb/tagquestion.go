package mongodb

import (
	"context"
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

var _ repository.TagQuestionRepository = (*TagQuestionRepo)(nil)

// TagQuestionRepo stores the tag↔question join rows.
type TagQuestionRepo struct {
	db *DB
}

// TagQuestions returns the join-row repository backed by this handle.
func (db *DB) TagQuestions() *TagQuestionRepo { return &TagQuestionRepo{db: db} }

func (r *TagQuestionRepo) col() *mongo.Collection {
	return r.db.db.Collection(collTagQuestions)
}

// Insert creates one join row. The unique (tag, question) index makes a
// double-insert a Conflict instead of a phantom second association.
func (r *TagQuestionRepo) Insert(ctx context.Context, tq *model.TagQuestion) error {
	tq.CreatedAt = time.Now()
	if tq.ID.IsZero() {
		tq.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, tq); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("tag association", fmt.Sprintf("tag %s question %s", tq.Tag.Hex(), tq.Question.Hex()))
		}
		return fmt.Errorf("mongodb: inserting tag association: %w", err)
	}
	return nil
}

func (r *TagQuestionRepo) DeleteByTagAndQuestion(ctx context.Context, tagID, questionID primitive.ObjectID) error {
	_, err := r.col().DeleteOne(ctx, bson.M{"tag": tagID, "question": questionID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting tag association: %w", err)
	}
	return nil
}

func (r *TagQuestionRepo) DeleteByQuestion(ctx context.Context, questionID primitive.ObjectID) error {
	_, err := r.col().DeleteMany(ctx, bson.M{"question": questionID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting tag associations for question %s: %w", questionID.Hex(), err)
	}
	return nil
}

func (r *TagQuestionRepo) ListQuestionIDsByTag(ctx context.Context, tagID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.col().Find(ctx, bson.M{"tag": tagID},
		options.Find().SetProjection(bson.M{"question": 1}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing questions for tag %s: %w", tagID.Hex(), err)
	}
	defer cur.Close(ctx)

	rows := []model.TagQuestion{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongodb: decoding tag associations: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Question)
	}
	return ids, nil
}

// CountByTag returns the number of live join rows for a tag — the ground
// truth the tag's usage counter must agree with.
func (r *TagQuestionRepo) CountByTag(ctx context.Context, tagID primitive.ObjectID) (int64, error) {
	n, err := r.col().CountDocuments(ctx, bson.M{"tag": tagID})
	if err != nil {
		return 0, fmt.Errorf("mongodb: counting tag associations: %w", err)
	}
	return n, nil
}

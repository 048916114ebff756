package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

var _ repository.TagRepository = (*TagRepo)(nil)

// TagRepo stores tags.
type TagRepo struct {
	db *DB
}

// Tags returns the tag repository backed by this handle.
func (db *DB) Tags() *TagRepo { return &TagRepo{db: db} }

func (r *TagRepo) col() *mongo.Collection {
	return r.db.db.Collection(collTags)
}

// FindOrCreateIncrement locates the tag whose name matches ignoring case and
// adds 1 to its usage counter; if absent, it creates the tag with the count
// seeded at 1 and the caller's original casing preserved.
//
// RACE SAFETY:
// This must be one server-side upsert, not a find followed by an insert.
// Two concurrent requests naming the same new tag both hit FindOneAndUpdate;
// the server serializes them against the unique nameCI index, so one
// upserts the document and the other increments it. A read-then-write pair
// here would create duplicate tags or lose increments.
func (r *TagRepo) FindOrCreateIncrement(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	ci := strings.ToLower(name)
	now := time.Now()

	filter := bson.M{"nameCI": ci}
	update := bson.M{
		"$inc": bson.M{"questions": 1},
		"$set": bson.M{"updatedAt": now},
		// applied only when the upsert inserts: keep the original casing
		"$setOnInsert": bson.M{"name": name, "nameCI": ci, "createdAt": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var tag model.Tag
	if err := r.col().FindOneAndUpdate(ctx, filter, update, opts).Decode(&tag); err != nil {
		return nil, fmt.Errorf("mongodb: upserting tag %q: %w", name, err)
	}
	return &tag, nil
}

// DecrementUsage subtracts 1 from the tag's usage counter, but only when the
// counter is still positive — the filter is the floor-at-zero guard, so
// drifted data can never drive the count negative.
//
// A tag that exists with a zero counter is left untouched (no error: the
// association removal still proceeds and the counts re-converge).
func (r *TagRepo) DecrementUsage(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"_id": id, "questions": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"questions": -1}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: decrementing tag %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		// Either the tag is gone or its counter already sits at zero.
		// Missing tag is an integrity fault worth surfacing; zero is the floor.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *TagRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Tag, error) {
	var t model.Tag
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("tag", id.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching tag %s: %w", id.Hex(), err)
	}
	return &t, nil
}

func (r *TagRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}

	cur, err := r.col().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("mongodb: fetching tags by ids: %w", err)
	}
	defer cur.Close(ctx)

	tags := []model.Tag{}
	if err := cur.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("mongodb: decoding tags: %w", err)
	}
	return tags, nil
}

// List returns a page of tags plus the unpaged total. Sort keys: "popular"
// (most used, default), "name", "recent".
func (r *TagRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Tag, int64, error) {
	filter := bson.M{}
	if opts.Query != "" {
		filter["nameCI"] = primitive.Regex{Pattern: escapeRegex(strings.ToLower(opts.Query))}
	}

	sort := bson.D{{Key: "questions", Value: -1}}
	switch opts.Sort {
	case "name":
		sort = bson.D{{Key: "nameCI", Value: 1}}
	case "recent":
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: counting tags: %w", err)
	}

	cur, err := r.col().Find(ctx, filter, options.Find().
		SetSort(sort).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize)))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: listing tags: %w", err)
	}
	defer cur.Close(ctx)

	tags := []model.Tag{}
	if err := cur.All(ctx, &tags); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decoding tags: %w", err)
	}
	return tags, total, nil
}

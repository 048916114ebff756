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

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo stores users.
type UserRepo struct {
	db *DB
}

// Users returns the user repository backed by this handle.
func (db *DB) Users() *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) col() *mongo.Collection {
	return r.db.db.Collection(collUsers)
}

// Insert creates a user document. A duplicate username or email trips the
// unique index and comes back as a Conflict.
func (r *UserRepo) Insert(ctx context.Context, u *model.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", fmt.Sprintf("username %s or email %s", u.Username, u.Email))
		}
		return fmt.Errorf("mongodb: inserting user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var u model.User
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id.Hex())
		}
		return nil, fmt.Errorf("mongodb: fetching user %s: %w", id.Hex(), err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.col().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("mongodb: fetching user by email: %w", err)
	}
	return &u, nil
}

// UpdateFields writes only the given bson fields. The OAuth sign-in path
// uses this for its minimal profile diff — an empty map writes nothing at
// all, so an unchanged profile causes zero version churn.
func (r *UserRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := r.col().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongodb: updating user fields %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", id.Hex())
	}
	return nil
}

// Update replaces the user's mutable profile fields from the model.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.col().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":      u.Name,
		"username":  u.Username,
		"email":     u.Email,
		"bio":       u.Bio,
		"image":     u.Image,
		"location":  u.Location,
		"portfolio": u.Portfolio,
		"updatedAt": u.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", fmt.Sprintf("username %s or email %s", u.Username, u.Email))
		}
		return fmt.Errorf("mongodb: updating user %s: %w", u.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", u.ID.Hex())
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting user %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("user", id.Hex())
	}
	return nil
}

// List returns a page of users plus the unpaged total.
func (r *UserRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.User, int64, error) {
	filter := bson.M{}
	if opts.Query != "" {
		// case-insensitive substring match on name or username
		re := primitive.Regex{Pattern: escapeRegex(opts.Query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"username": re}}
	}

	var sort bson.D
	switch opts.Sort {
	case "oldest":
		sort = bson.D{{Key: "createdAt", Value: 1}}
	case "popular":
		sort = bson.D{{Key: "reputation", Value: -1}}
	default: // newest
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: counting users: %w", err)
	}

	cur, err := r.col().Find(ctx, filter, options.Find().
		SetSort(sort).
		SetSkip(opts.Skip()).
		SetLimit(int64(opts.PageSize)))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: listing users: %w", err)
	}
	defer cur.Close(ctx)

	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decoding users: %w", err)
	}
	return users, total, nil
}

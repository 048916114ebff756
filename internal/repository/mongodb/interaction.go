package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

var _ repository.InteractionRepository = (*InteractionRepo)(nil)

// InteractionRepo appends to the activity log. Insert-only.
type InteractionRepo struct {
	db *DB
}

// Interactions returns the interaction log backed by this handle.
func (db *DB) Interactions() *InteractionRepo { return &InteractionRepo{db: db} }

func (r *InteractionRepo) col() *mongo.Collection {
	return r.db.db.Collection(collInteractions)
}

func (r *InteractionRepo) Insert(ctx context.Context, i *model.Interaction) error {
	i.CreatedAt = time.Now()
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}

	if _, err := r.col().InsertOne(ctx, i); err != nil {
		return fmt.Errorf("mongodb: inserting interaction: %w", err)
	}
	return nil
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account links a User to one identity provider. A user accumulates one
// Account per provider they've signed in with; (provider, providerAccountId)
// is unique across the collection.
//
// Name and Image are denormalized from the provider profile so account
// listings don't need a join back to users. Password is set only for the
// "credentials" provider and holds a bcrypt hash, never plaintext.
type Account struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Name              string             `bson:"name" json:"name"`
	Image             string             `bson:"image,omitempty" json:"image,omitempty"`
	Provider          string             `bson:"provider" json:"provider"`
	ProviderAccountID string             `bson:"providerAccountId" json:"providerAccountId"`
	Password          string             `bson:"password,omitempty" json:"-"` // bcrypt hash, never serialized
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Providers accepted by the sign-in endpoints.
const (
	ProviderGitHub      = "github"
	ProviderGoogle      = "google"
	ProviderCredentials = "credentials"
)

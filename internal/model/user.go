// Package model defines the document structures stored in MongoDB.
//
// Every struct carries bson tags (how the document is stored) and json tags
// (how it appears in API responses). The two deliberately differ in casing:
// bson follows Mongo's camelCase field convention, json follows the API's.
//
// Referential integrity between documents (question → author, answer →
// question, and so on) is enforced in the service layer, not by the store.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered person. Created on sign-up or first OAuth login.
//
// Username is stored slugified (lowercase, URL-safe) — the slug is the
// uniqueness key, not whatever casing the OAuth provider handed us.
// Email is the cross-provider identity key: one person signing in with
// GitHub and Google ends up with one User and two Accounts.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Username   string             `bson:"username" json:"username"` // unique, slugified
	Email      string             `bson:"email" json:"email"`       // unique
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Location   string             `bson:"location,omitempty" json:"location,omitempty"`
	Portfolio  string             `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	Reputation int                `bson:"reputation" json:"reputation"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

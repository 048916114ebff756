package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer is a reply to a question. Creating one increments the parent
// question's Answers counter by exactly one, in the same transaction —
// a reader never sees an answer without the counter bump or vice versa.
type Answer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Question  primitive.ObjectID `bson:"question" json:"question"`
	Content   string             `bson:"content" json:"content"`
	Upvotes   int                `bson:"upvotes" json:"upvotes"`
	Downvotes int                `bson:"downvotes" json:"downvotes"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

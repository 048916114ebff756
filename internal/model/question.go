package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is an asked question. Author is immutable after creation.
//
// Tags holds the resolved tag ids in request order; it is mutated only by
// the tag-sync algorithm in the question service so it always mirrors the
// tag_questions join rows. Answers/Upvotes/Downvotes/Views are denormalized
// counters, moved exclusively via $inc inside a transaction.
type Question struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title     string               `bson:"title" json:"title"`
	Content   string               `bson:"content" json:"content"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Tags      []primitive.ObjectID `bson:"tags" json:"tags"`
	Answers   int                  `bson:"answers" json:"answers"`
	Upvotes   int                  `bson:"upvotes" json:"upvotes"`
	Downvotes int                  `bson:"downvotes" json:"downvotes"`
	Views     int                  `bson:"views" json:"views"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

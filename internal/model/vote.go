package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote targets (ActionType) and directions (VoteType).
const (
	ActionQuestion = "question"
	ActionAnswer   = "answer"

	VoteUpvote   = "upvote"
	VoteDownvote = "downvote"
)

// Vote records one user's active vote on one target. The collection has a
// unique index on (author, actionId, actionType), so a user holds at most
// one vote per target; voting again either toggles it off or flips its type.
type Vote struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author     primitive.ObjectID `bson:"author" json:"author"`
	ActionID   primitive.ObjectID `bson:"actionId" json:"actionId"`
	ActionType string             `bson:"actionType" json:"actionType"` // "question" | "answer"
	VoteType   string             `bson:"voteType" json:"voteType"`     // "upvote" | "downvote"
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interaction actions.
const (
	InteractionView       = "view"
	InteractionUpvote     = "upvote"
	InteractionDownvote   = "downvote"
	InteractionAsk        = "ask_question"
	InteractionPostAnswer = "post_answer"
	InteractionDelete     = "delete"
)

// Interaction is one row in the append-only activity log. The write path
// only ever inserts; downstream recommendation jobs read it.
type Interaction struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Action     string             `bson:"action" json:"action"`
	ActionID   primitive.ObjectID `bson:"actionId" json:"actionId"`
	ActionType string             `bson:"actionType" json:"actionType"` // "question" | "answer"
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag is a label shared by many questions.
//
// Name keeps the casing of whoever created the tag first ("React" stays
// "React"). NameCI is the lowercase lookup key with a unique index — all
// matching is done against it, so "react" and "React" are the same tag.
//
// Questions is a reference count: it must always equal the number of live
// TagQuestion rows pointing at this tag, and it never goes negative. Both
// properties hold because every mutation happens through an atomic
// upsert-with-$inc inside the same transaction that touches the join rows.
type Tag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"nameCI" json:"-"` // lowercase key, unique
	Questions int                `bson:"questions" json:"questions"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TagQuestion is the join row between a tag and a question. One row exists
// per association; its lifetime exactly mirrors the tag id's membership in
// the question's Tags list.
type TagQuestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Tag       primitive.ObjectID `bson:"tag" json:"tag"`
	Question  primitive.ObjectID `bson:"question" json:"question"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Package mongodb implements the repository interfaces on MongoDB.
//
// WHY MONGODB?
// The write-coordination core leans on two things only a document store with
// native multi-document transactions gives us cheaply:
//   - transactional sessions: several dependent writes commit or abort as one
//   - atomic upsert-with-increment: FindOneAndUpdate with $inc/$setOnInsert,
//     which makes the tag find-or-create race-safe without app-level locking
//
// SESSIONS VIA CONTEXT:
// WithTransaction hands its callback a session-bound context. Every driver
// call made with that ctx automatically joins the open transaction — the
// repos don't know or care whether they're inside one. This is the explicit
// transaction-scope handle: it travels through function signatures as the
// ctx parameter.
package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names. One constant per collection so a typo is a compile
// error in exactly one place.
const (
	collUsers        = "users"
	collAccounts     = "accounts"
	collQuestions    = "questions"
	collTags         = "tags"
	collTagQuestions = "tag_questions"
	collAnswers      = "answers"
	collVotes        = "votes"
	collInteractions = "interactions"
)

// connectTimeout bounds the initial dial + ping.
const connectTimeout = 10 * time.Second

// DB is the process-wide store handle. The composition root constructs one
// and injects it everywhere; it implements every repository interface plus
// repository.TxRunner.
//
// Connect is guarded by sync.Once, so concurrent first callers converge on
// a single connection attempt instead of racing to open many.
type DB struct {
	uri  string
	name string

	once       sync.Once
	connectErr error
	client     *mongo.Client
	db         *mongo.Database
}

// New creates an unconnected DB handle. Call Connect before use.
func New(uri, dbName string) *DB {
	return &DB{uri: uri, name: dbName}
}

// Connect dials MongoDB, verifies the connection, and bootstraps indexes.
// It is idempotent: every call after the first returns the first call's
// result without re-dialing.
func (db *DB) Connect(ctx context.Context) error {
	db.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(db.uri))
		if err != nil {
			db.connectErr = fmt.Errorf("mongodb: connecting: %w", err)
			return
		}

		// Connect doesn't actually dial — Ping forces a round-trip so a bad
		// URI fails here instead of on the first query.
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			db.connectErr = fmt.Errorf("mongodb: pinging: %w", err)
			return
		}

		db.client = client
		db.db = client.Database(db.name)

		if err := db.ensureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			db.client = nil
			db.db = nil
			db.connectErr = fmt.Errorf("mongodb: creating indexes: %w", err)
		}
	})
	return db.connectErr
}

// Close disconnects the client. Safe to call on a handle that never
// connected.
func (db *DB) Close(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	return db.client.Disconnect(ctx)
}

// WithTransaction runs fn as one atomic unit.
//
// The callback's ctx carries the session; fn must pass it to every repo call
// that belongs to the unit. fn returning nil commits; any error aborts the
// whole transaction, so no partial tag/counter state ever persists.
//
// Deliberately no automatic retry: on a write conflict the unit aborts and
// the error surfaces — callers re-submit. (The driver's session.WithTransaction
// helper retries transient errors; we manage the transaction by hand to keep
// abort-and-surface semantics.)
//
// The session is ended on every exit path.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := db.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongodb: starting session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return fmt.Errorf("mongodb: starting transaction: %w", err)
		}

		if err := fn(sc); err != nil {
			// Abort failures are secondary — the operation already failed
			// and the server times the transaction out regardless.
			_ = sess.AbortTransaction(sc)
			return err
		}

		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("mongodb: committing transaction: %w", err)
		}
		return nil
	})
}

// ensureIndexes creates the uniqueness constraints the data model relies on
// plus the lookup indexes the read path uses. CreateMany is idempotent for identical specs.
func (db *DB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collAccounts: {
			{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "providerAccountId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		collQuestions: {
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		collTags: {
			{Keys: bson.D{{Key: "nameCI", Value: 1}}, Options: unique},
		},
		collTagQuestions: {
			{Keys: bson.D{{Key: "tag", Value: 1}, {Key: "question", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "question", Value: 1}}},
		},
		collAnswers: {
			{Keys: bson.D{{Key: "question", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
		collVotes: {
			{Keys: bson.D{{Key: "author", Value: 1}, {Key: "actionId", Value: 1}, {Key: "actionType", Value: 1}}, Options: unique},
		},
		collInteractions: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("collection %s: %w", coll, err)
		}
	}
	return nil
}

// escapeRegex neutralizes regex metacharacters in user-supplied search
// strings before they go into a $regex filter.
func escapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists documents in the "messages" collection.
type Store struct {
	c *mongo.Collection
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Create inserts m, assigning its id and timestamp. Messages are never
// modified afterwards.
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// ListFilter selects the messages visible to Participant.
type ListFilter struct {
	Participant primitive.ObjectID  // sender or receiver
	Listing     *primitive.ObjectID // optional
	With        *primitive.ObjectID // optional other party
}

func (f ListFilter) query() bson.M {
	var q bson.M
	if f.With != nil {
		q = bson.M{"$or": []bson.M{
			{"sender": f.Participant, "receiver": *f.With},
			{"sender": *f.With, "receiver": f.Participant},
		}}
	} else {
		q = bson.M{"$or": []bson.M{
			{"sender": f.Participant},
			{"receiver": f.Participant},
		}}
	}
	if f.Listing != nil {
		q["listing"] = *f.Listing
	}
	return q
}

// List returns one page of messages matching f, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}

// Count returns the number of messages matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	n, err := s.c.CountDocuments(ctx, f.query())
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

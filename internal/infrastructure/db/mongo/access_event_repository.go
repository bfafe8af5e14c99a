package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

const (
	accessEventsCollection = "access_events"
	accessEventRetention   = 90 * 24 * time.Hour
)

// AccessEventRepository persists gate decisions to the access_events audit collection.
type AccessEventRepository struct {
	coll *mongo.Collection
}

func NewAccessEventRepository(db *mongo.Database) *AccessEventRepository {
	return &AccessEventRepository{coll: db.Collection(accessEventsCollection)}
}

// Record inserts one event.
func (r *AccessEventRepository) Record(ctx context.Context, event *domain.AccessEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert access event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *AccessEventRepository) Recent(ctx context.Context, limit int) ([]*domain.AccessEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find access events: %w", err)
	}
	defer cur.Close(ctx)

	events := make([]*domain.AccessEvent, 0, limit)
	for cur.Next(ctx) {
		var e domain.AccessEvent
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode access event: %w", err)
		}
		events = append(events, &e)
	}
	return events, cur.Err()
}

// EnsureIndexes adds a TTL index so the audit trail does not grow without bound.
func (r *AccessEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "at", Value: -1}},
			Options: options.Index().SetExpireAfterSeconds(int32(accessEventRetention.Seconds())),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

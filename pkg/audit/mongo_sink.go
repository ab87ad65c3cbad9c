package audit

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoSink inserts events into a collection. Documents are never updated.
type MongoSink struct {
	coll *mongo.Collection
}

// NewMongoSink creates a sink over coll. Panics on nil collection.
// Nested metadata documents decode as maps so event hashes verify after a round trip.
func NewMongoSink(coll *mongo.Collection) *MongoSink {
	if coll == nil {
		panic("audit: mongo collection cannot be nil")
	}
	coll = coll.Database().Collection(coll.Name(),
		options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	return &MongoSink{coll: coll}
}

// EnsureIndexes creates the indexes used by Query.
func (s *MongoSink) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "key_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}

// Write implements Sink.
func (s *MongoSink) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, len(events))
	for i, e := range events {
		docs[i] = e
	}

	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}

// Query implements Querier.
func (s *MongoSink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	filter := bson.M{}
	if !c.From.IsZero() || !c.To.IsZero() {
		ts := bson.M{}
		if !c.From.IsZero() {
			ts["$gte"] = c.From
		}
		if !c.To.IsZero() {
			ts["$lt"] = c.To
		}
		filter["timestamp"] = ts
	}
	if len(c.Types) > 0 {
		filter["type"] = bson.M{"$in": c.Types}
	}
	if c.KeyID != "" {
		filter["key_id"] = c.KeyID
	}
	if c.Outcome != "" {
		filter["outcome"] = string(c.Outcome)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}}).
		SetLimit(int64(c.limit())).
		SetSkip(int64(max(c.Offset, 0)))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	defer cur.Close(ctx)

	out := []Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

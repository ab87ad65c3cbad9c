package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink stores events in Redis.
//
// Layout under the configured prefix (default "audit:"):
//
//	<prefix>event:<id>       JSON encoded Event
//	<prefix>idx:time         sorted set of ids scored by unix milliseconds
//	<prefix>idx:type:<type>  same, per event type
//	<prefix>idx:key:<key_id> same, per API key
type RedisSink struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisSinkOption configures a RedisSink.
type RedisSinkOption func(*RedisSink)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisSinkOption {
	return func(s *RedisSink) { s.prefix = prefix }
}

// WithRetention expires event bodies after d. Index entries older than d are trimmed on write.
func WithRetention(d time.Duration) RedisSinkOption {
	return func(s *RedisSink) { s.retention = d }
}

// NewRedisSink creates a sink over client. Panics on nil client.
func NewRedisSink(client redis.UniversalClient, opts ...RedisSinkOption) *RedisSink {
	if client == nil {
		panic("audit: redis client cannot be nil")
	}
	s := &RedisSink{client: client, prefix: "audit:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSink) eventKey(id string) string { return s.prefix + "event:" + id }
func (s *RedisSink) timeIndex() string { return s.prefix + "idx:time" }
func (s *RedisSink) typeIndex(t string) string { return s.prefix + "idx:type:" + t }
func (s *RedisSink) keyIndex(keyID string) string { return s.prefix + "idx:key:" + keyID }

// Write implements Sink. The batch is written in one MULTI/EXEC transaction.
func (s *RedisSink) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			score := float64(e.Timestamp.UnixMilli())
			member := redis.Z{Score: score, Member: e.ID}

			p.Set(ctx, s.eventKey(e.ID), data, s.retention)
			p.ZAdd(ctx, s.timeIndex(), member)
			p.ZAdd(ctx, s.typeIndex(e.Type), member)
			if e.KeyID != "" {
				p.ZAdd(ctx, s.keyIndex(e.KeyID), member)
			}
		}
		if s.retention > 0 {
			cutoff := strconv.FormatInt(time.Now().Add(-s.retention).UnixMilli(), 10)
			p.ZRemRangeByScore(ctx, s.timeIndex(), "-inf", "("+cutoff)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}

// Query implements Querier. It scans the most selective index, then filters event bodies.
func (s *RedisSink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	index := s.timeIndex()
	switch {
	case c.KeyID != "":
		index = s.keyIndex(c.KeyID)
	case len(c.Types) == 1:
		index = s.typeIndex(c.Types[0])
	}

	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !c.From.IsZero() {
		rng.Min = strconv.FormatInt(c.From.UnixMilli(), 10)
	}
	if !c.To.IsZero() {
		rng.Max = "(" + strconv.FormatInt(c.To.UnixMilli(), 10)
	}

	ids, err := s.client.ZRangeByScore(ctx, index, rng).Result()
	if err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	if len(ids) == 0 {
		return []Event{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.eventKey(id)
	}
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}

	out := make([]Event, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			// Expired body, index entry not trimmed yet.
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			continue
		}
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return page(out, c), nil
}

// LastHash returns the hash of the most recent event, or "" when empty.
// Pass it to WithLastHash to continue the chain after a restart.
func (s *RedisSink) LastHash(ctx context.Context) (string, error) {
	ids, err := s.client.ZRevRange(ctx, s.timeIndex(), 0, 0).Result()
	if err != nil {
		return "", errors.Join(ErrSinkUnavailable, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	data, err := s.client.Get(ctx, s.eventKey(ids[0])).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Join(ErrSinkUnavailable, err)
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	return e.Hash, nil
}

// Package store defines the key-value contract the authorization engine persists
// roles and API keys through, together with a Redis implementation and an
// in-memory implementation for tests and single-process deployments.
//
// The contract is deliberately small and mirrors a subset of Redis commands:
//
//   - Get / Set / Delete on plain keys
//   - SAdd / SRem / SMembers / SIsMember on sets
//   - Batch for grouping writes that must land together (MULTI/EXEC on Redis)
//
// Every call is bounded by the per-operation timeout from Config. A call that
// times out or cannot reach the backend returns an error matching
// ErrUnavailable, which callers treat as a deny. A missing key is reported as
// ErrNotFound.
//
// # Usage
//
//	client, err := redis.Connect(ctx, redisCfg)
//	if err != nil {
//	    return err
//	}
//	kv := store.NewRedis(client, store.WithOpTimeout(200*time.Millisecond))
//
//	if err := kv.Set(ctx, "role:admin", data, 0); err != nil {
//	    // errors.Is(err, store.ErrUnavailable) when redis is down
//	}
//
// Tests use the in-memory implementation:
//
//	kv := store.NewMemory()
package store

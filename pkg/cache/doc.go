// Package cache provides a generic, thread-safe LRU cache with per-entry TTL.
//
// The authorization engine uses it to optionally memoize resolved role
// permission sets. The TTL is the upper bound on how long a role change can go
// unnoticed; capacity bounds memory. API keys are never cached.
//
//	c := cache.NewTTLCache[string, permission.Set](1024, 5*time.Second)
//	c.Put("admin", set)
//	if set, ok := c.Get("admin"); ok {
//	    // fresh for at most 5s
//	}
//
// All operations are O(1) and guarded by a single mutex.
package cache

// Package redis connects to the Redis server that backs the role and API key
// store and the Redis audit sink.
//
// Connect parses the connection URL, applies short command timeouts and retries
// the initial ping a bounded number of times. Healthcheck returns a check usable
// by the readiness endpoint.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	kv := store.NewRedis(client)
package redis

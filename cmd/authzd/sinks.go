package main

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/config"
	mongoconn "github.com/dmitrymomot/authz/pkg/mongo"
	osconn "github.com/dmitrymomot/authz/pkg/opensearch"
	"github.com/dmitrymomot/authz/pkg/pg"
)

// chainHead is implemented by sinks that can report the last stored hash.
type chainHead interface {
	LastHash(ctx context.Context) (string, error)
}

// openAuditSinks builds the configured sinks. The first queryable sink serves
// GET /v1/audit and the first one reporting a chain head seeds the emitter.
func (a *app) openAuditSinks(ctx context.Context, cfg appConfig) (audit.Sink, string, error) {
	if len(cfg.Audit.Sinks) == 0 {
		return audit.NewLogSink(a.log), "", nil
	}

	var sinks audit.MultiSink
	for _, name := range cfg.Audit.Sinks {
		sink, err := a.openAuditSink(ctx, cfg, name)
		if err != nil {
			return nil, "", fmt.Errorf("audit sink %s: %w", name, err)
		}
		sinks = append(sinks, sink)
	}

	var lastHash string
	for _, s := range sinks {
		head, ok := s.(chainHead)
		if !ok {
			continue
		}
		h, err := head.LastHash(ctx)
		if err != nil {
			return nil, "", err
		}
		lastHash = h
		break
	}

	if len(sinks) == 1 {
		return sinks[0], lastHash, nil
	}
	return sinks, lastHash, nil
}

func (a *app) openAuditSink(ctx context.Context, cfg appConfig, name string) (audit.Sink, error) {
	switch name {
	case audit.SinkLog:
		return audit.NewLogSink(a.log), nil

	case audit.SinkMemory:
		return audit.NewMemorySink(), nil

	case audit.SinkRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return audit.NewRedisSink(client,
			audit.WithRedisPrefix(cfg.Audit.RedisPrefix),
			audit.WithRetention(cfg.Audit.RedisRetention),
		), nil

	case audit.SinkPostgres:
		var pcfg pg.Config
		if err := config.Load(&pcfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, audit.PostgresMigrations(), pcfg, a.log); err != nil {
			return nil, err
		}
		a.checks["postgres"] = pg.Healthcheck(pool)
		return audit.NewPostgresSink(pool), nil

	case audit.SinkOpenSearch:
		var ocfg osconn.Config
		if err := config.Load(&ocfg); err != nil {
			return nil, err
		}
		client, err := osconn.New(ctx, ocfg)
		if err != nil {
			return nil, err
		}
		if err := osconn.EnsureIndex(ctx, client, ocfg.Index, audit.OpenSearchMapping); err != nil {
			return nil, err
		}
		a.checks["opensearch"] = osconn.Healthcheck(client)
		return audit.NewOpenSearchSink(client, ocfg.Index), nil

	case audit.SinkMongo:
		var mcfg mongoconn.Config
		if err := config.Load(&mcfg); err != nil {
			return nil, err
		}
		client, err := mongoconn.Connect(ctx, mcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		sink := audit.NewMongoSink(mongoconn.Collection(client, mcfg))
		if err := sink.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		a.checks["mongo"] = mongoconn.Healthcheck(client)
		return sink, nil

	default:
		return nil, fmt.Errorf("%w: unknown sink %q", errConfig, name)
	}
}

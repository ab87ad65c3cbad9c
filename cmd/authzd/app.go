package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authz/pkg/api"
	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/clientip"
	"github.com/dmitrymomot/authz/pkg/config"
	"github.com/dmitrymomot/authz/pkg/httpserver"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/rbac"
	redisconn "github.com/dmitrymomot/authz/pkg/redis"
	"github.com/dmitrymomot/authz/pkg/requestid"
	"github.com/dmitrymomot/authz/pkg/store"
)

const bootstrapKeyName = "bootstrap-admin"

var errConfig = errors.New("authzd.invalid_config")

// app holds the wired service and the resources to release on exit.
type app struct {
	handler        http.Handler
	emitter        *audit.Emitter
	sink           audit.Sink
	bootstrapToken string

	log     *slog.Logger
	redis   goredis.UniversalClient
	checks  map[string]httpserver.Check
	closers []func()
}

func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{log: log, checks: map[string]httpserver.Check{}}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	hasher, err := newHasher(cfg, log)
	if err != nil {
		return nil, err
	}

	kv, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.checks["store"] = store.Healthcheck(kv)

	resolver := rbac.NewResolver(kv,
		rbac.WithLogger(log),
		rbac.WithCache(cfg.RoleCacheSize, cfg.RoleCacheTTL),
	)
	roles := rbac.NewManager(kv, rbac.WithLogger(log), rbac.WithResolver(resolver))
	if err := seedRoles(ctx, cfg, roles, log); err != nil {
		return nil, err
	}

	keys := apikey.NewManager(kv,
		apikey.WithHasher(hasher),
		apikey.WithRoleChecker(roles),
		apikey.WithLogger(log),
	)

	sink, lastHash, err := a.openAuditSinks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.sink = sink
	a.emitter = audit.NewEmitter(sink,
		audit.WithConfig(cfg.Audit),
		audit.WithLogger(log),
		audit.WithLastHash(lastHash),
	)

	engine := authz.NewEngine(keys, resolver, authz.WithLogger(log), authz.WithEmitter(a.emitter))

	if cfg.BootstrapAdminKey {
		if a.bootstrapToken, err = bootstrapAdmin(ctx, keys, log); err != nil {
			return nil, err
		}
	}

	extractor, err := clientip.New(clientip.WithTrustedProxies(cfg.Authz.TrustedProxies...))
	if err != nil {
		return nil, errors.Join(errConfig, err)
	}
	callers, err := clientip.ParseAllowList(cfg.TrustedCallers)
	if err != nil {
		return nil, errors.Join(errConfig, err)
	}

	svc := api.New(engine, roles, resolver, keys,
		api.WithConfig(cfg.Authz),
		api.WithEmitter(a.emitter),
		api.WithAuditSink(sink),
		api.WithTrustedCallers(callers),
		api.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(extractor.Middleware)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.ReadinessTimeout, a.checks))
	r.Mount("/v1", svc.Handle())
	a.handler = r

	a.emitter.Emit(ctx, audit.Event{
		Type:    audit.TypeSystemStartup,
		Action:  "start",
		Actor:   cfg.Service,
		Outcome: audit.OutcomeSuccess,
		Metadata: map[string]any{
			"env":         cfg.Env,
			"store":       cfg.StoreBackend,
			"audit_sinks": cfg.Audit.Sinks,
		},
	})
	log.InfoContext(ctx, "authzd ready",
		slog.String("store", cfg.StoreBackend),
		slog.Any("audit_sinks", cfg.Audit.Sinks),
	)
	return a, nil
}

func newHasher(cfg appConfig, log *slog.Logger) (*apikey.Hasher, error) {
	if cfg.HashSecret == "" {
		if cfg.Env == logger.EnvProduction {
			return nil, fmt.Errorf("%w: APIKEY_HASH_SECRET is required in production", errConfig)
		}
		log.Warn("APIKEY_HASH_SECRET not set, token digests are unkeyed")
		return nil, nil
	}
	secret, err := apikey.DecodeSecret(cfg.HashSecret)
	if err != nil {
		return nil, errors.Join(errConfig, err)
	}
	h, err := apikey.NewHasher(secret)
	if err != nil {
		return nil, errors.Join(errConfig, err)
	}
	return h, nil
}

func (a *app) openStore(ctx context.Context, cfg appConfig) (store.Store, error) {
	switch cfg.StoreBackend {
	case backendMemory:
		a.log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(store.WithConfig(cfg.Store)), nil
	case backendRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewRedis(client, store.WithConfig(cfg.Store)), nil
	default:
		return nil, fmt.Errorf("%w: unknown STORE_BACKEND %q", errConfig, cfg.StoreBackend)
	}
}

// redisClient connects once and is shared by the store and the Redis audit sink.
func (a *app) redisClient(ctx context.Context) (goredis.UniversalClient, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	var rcfg redisconn.Config
	if err := config.Load(&rcfg); err != nil {
		return nil, err
	}
	client, err := redisconn.Connect(ctx, rcfg)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.checks["redis"] = redisconn.Healthcheck(client)
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client, nil
}

func seedRoles(ctx context.Context, cfg appConfig, roles *rbac.Manager, log *slog.Logger) error {
	seed := rbac.DefaultRoles()
	if cfg.RolesFile != "" {
		var err error
		if seed, err = rbac.LoadSeedFile(cfg.RolesFile); err != nil {
			return err
		}
	}
	created, err := rbac.Seed(ctx, roles, seed)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "roles seeded", slog.Int("created", created), slog.Int("total", len(seed)))
	return nil
}

// bootstrapAdmin creates an admin key when the store holds none, so a fresh
// deployment can be administered. It returns the raw token or "".
func bootstrapAdmin(ctx context.Context, keys *apikey.Manager, log *slog.Logger) (string, error) {
	existing, err := keys.List(ctx)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", nil
	}
	key, token, err := keys.Create(ctx, apikey.CreateParams{
		Name:        bootstrapKeyName,
		Description: "created on first start",
		Roles:       []string{"admin"},
	})
	if err != nil {
		return "", err
	}
	log.WarnContext(ctx, "bootstrap admin key created", logger.KeyID(key.ID))
	return token, nil
}

// flushAudit drains queued audit events before exit.
func (a *app) flushAudit() {
	if a.emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.emitter.Close(ctx); err != nil && !errors.Is(err, audit.ErrEmitterClosed) {
		a.log.Error("audit flush failed", logger.Error(err))
	}
}

func (a *app) close() {
	a.flushAudit()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

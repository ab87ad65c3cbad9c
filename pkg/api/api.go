package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/binder"
	"github.com/dmitrymomot/authz/pkg/clientip"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/requestid"
)

// Permissions guarding the administration routes.
const (
	PermRolesRead  = "roles:read"
	PermRolesWrite = "roles:write"
	PermKeysRead   = "keys:read"
	PermKeysWrite  = "keys:write"
	PermAuditRead  = "audit:read"
)

// Service serves the HTTP API.
type Service struct {
	engine   *authz.Engine
	roles    *rbac.Manager
	resolver *rbac.Resolver
	keys     *apikey.Manager
	events   *audit.Reader
	emitter  authz.Emitter
	cfg      authz.Config
	bind     binder.Func
	trusted  clientip.AllowList
	logger   *slog.Logger
}

// DefaultTrustedCallers may override client_ip on POST /v1/authorize.
var DefaultTrustedCallers = clientip.AllowList{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
}

// Option configures a Service.
type Option func(*Service)

// WithAuditSink enables the audit query routes over sink. Sinks that cannot be
// queried answer 501.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.events = audit.NewReader(sink)
		}
	}
}

// WithEmitter records administrative changes as audit events.
func WithEmitter(e authz.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithConfig sets the credential header settings used by the guard middleware.
func WithConfig(cfg authz.Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithTrustedCallers replaces the callers allowed to supply client_ip to
// POST /v1/authorize on behalf of another client. An empty list disables the override.
func WithTrustedCallers(list clientip.AllowList) Option {
	return func(s *Service) { s.trusted = list }
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates the API service. Panics on nil dependencies.
func New(engine *authz.Engine, roles *rbac.Manager, resolver *rbac.Resolver, keys *apikey.Manager, opts ...Option) *Service {
	if engine == nil || roles == nil || resolver == nil || keys == nil {
		panic("api: engine, roles, resolver and keys are required")
	}
	s := &Service{
		engine:   engine,
		roles:    roles,
		resolver: resolver,
		keys:     keys,
		emitter:  nopEmitter{},
		cfg:      authz.DefaultConfig(),
		bind:     binder.JSON(),
		trusted:  DefaultTrustedCallers,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("api"))
	return s
}

// Handle returns the /v1 router.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/authorize", s.authorize)

	r.Route("/roles", func(r chi.Router) {
		r.With(s.guard(PermRolesRead)).Get("/", s.listRoles)
		r.With(s.guard(PermRolesWrite)).Post("/", s.createRole)
		r.Route("/{name}", func(r chi.Router) {
			r.With(s.guard(PermRolesRead)).Get("/", s.getRole)
			r.With(s.guard(PermRolesRead)).Get("/effective", s.effectivePermissions)
			r.With(s.guard(PermRolesWrite)).Put("/", s.updateRole)
			r.With(s.guard(PermRolesWrite)).Delete("/", s.deleteRole)
			r.With(s.guard(PermRolesWrite)).Post("/permissions", s.grantPermission)
			r.With(s.guard(PermRolesWrite)).Delete("/permissions", s.revokePermission)
		})
	})

	r.Route("/keys", func(r chi.Router) {
		r.With(s.guard(PermKeysRead)).Get("/", s.listKeys)
		r.With(s.guard(PermKeysWrite)).Post("/", s.createKey)
		r.Route("/{id}", func(r chi.Router) {
			r.With(s.guard(PermKeysRead)).Get("/", s.getKey)
			r.With(s.guard(PermKeysWrite)).Patch("/", s.updateKey)
			r.With(s.guard(PermKeysWrite)).Delete("/", s.revokeKey)
		})
	})

	r.With(s.guard(PermAuditRead)).Get("/audit", s.queryAudit)
	r.With(s.guard(PermAuditRead)).Get("/audit/export", s.exportAudit)

	return r
}

func (s *Service) guard(perm string) func(http.Handler) http.Handler {
	return authz.Middleware(s.engine, perm, authz.WithConfig(s.cfg))
}

// record emits an administrative audit event attributed to the calling key.
func (s *Service) record(ctx context.Context, typ, resourceType, resourceID string, meta map[string]any) {
	ev := audit.Event{
		Type:         typ,
		Action:       typ,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      audit.OutcomeSuccess,
		Metadata:     meta,
		RequestID:    requestid.FromContext(ctx),
	}
	if p, ok := authz.PrincipalFromContext(ctx); ok {
		ev.KeyID = p.Key.ID
		ev.Actor = p.Key.Name
	}
	s.emitter.Emit(ctx, ev)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, audit.Event) {}

package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/permission"
)

// KeyLookup finds API keys by raw token. *apikey.Manager satisfies it.
type KeyLookup interface {
	GetByToken(ctx context.Context, token string) (apikey.Key, error)
}

// PermissionResolver computes the union of role permissions. *rbac.Resolver satisfies it.
type PermissionResolver interface {
	EffectiveMany(ctx context.Context, roles ...string) (permission.Set, error)
}

// Emitter hands audit events off without blocking. *audit.Emitter satisfies it.
type Emitter interface {
	Emit(ctx context.Context, e audit.Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, audit.Event) {}

// Option configures a Validator or an Engine.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	emitter Emitter
	now     func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.New(slog.DiscardHandler),
		emitter: nopEmitter{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEmitter sets the audit emitter. Nil is ignored.
func WithEmitter(e Emitter) Option {
	return func(o *options) {
		if e != nil {
			o.emitter = e
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

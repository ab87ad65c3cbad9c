package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/permission"
)

// Engine answers authorization requests: authenticate, restrict, authorize.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	validator *Validator
	logger    *slog.Logger
	emitter   Emitter
}

// NewEngine creates an engine. Panics on nil dependencies.
func NewEngine(keys KeyLookup, resolver PermissionResolver, opts ...Option) *Engine {
	o := newOptions(opts)
	return &Engine{
		validator: NewValidator(keys, resolver, opts...),
		logger:    o.logger.With(logger.Component("authz.engine")),
		emitter:   o.emitter,
	}
}

// Validator returns the engine's validator.
func (e *Engine) Validator() *Validator {
	return e.validator
}

// Check decides req. A denial returns both a Decision and an error classifying it.
// Exactly one audit event is emitted per call.
func (e *Engine) Check(ctx context.Context, req Request) (Decision, error) {
	_, d, err := e.Authorize(ctx, req)
	return d, err
}

// Authorize is Check that also returns the authenticated principal.
// The principal is zero unless the request is allowed.
func (e *Engine) Authorize(ctx context.Context, req Request) (Principal, Decision, error) {
	p, d, err := e.decide(ctx, req)
	e.record(ctx, req, d, err)
	if !d.Allowed {
		return Principal{}, d, err
	}
	return p, d, nil
}

func (e *Engine) decide(ctx context.Context, req Request) (Principal, Decision, error) {
	d := Decision{
		Reason:     ReasonInvalidRequest,
		Permission: req.Permission,
		Resource:   req.Resource,
	}

	requested, err := permission.Parse(req.Permission)
	if err != nil {
		return Principal{}, d, errors.Join(ErrInvalidRequest, err)
	}
	d.Permission = requested.String()

	p, reason, err := e.validator.validate(ctx, req.Token, req.ClientIP)
	d.KeyID = p.Key.ID
	d.Reason = reason
	if err != nil {
		return Principal{}, d, err
	}

	if !p.Permissions.Grants(requested) {
		d.Reason = ReasonInsufficientPermission
		return Principal{}, d, errors.Join(ErrAuthorization, ErrInsufficientPermission)
	}

	d.Allowed = true
	d.Reason = ReasonAllowed
	return p, d, nil
}

func (e *Engine) record(ctx context.Context, req Request, d Decision, err error) {
	attrs := []slog.Attr{
		logger.KeyID(d.KeyID),
		logger.Permission(d.Permission),
		logger.Reason(string(d.Reason)),
		slog.String("client_ip", req.ClientIP),
	}
	switch {
	case d.Allowed:
		e.logger.LogAttrs(ctx, slog.LevelDebug, "access granted", attrs...)
	case d.Reason == ReasonStoreUnavailable:
		e.logger.LogAttrs(ctx, slog.LevelError, "access denied: store unavailable", append(attrs, logger.Error(err))...)
	default:
		e.logger.LogAttrs(ctx, slog.LevelWarn, "access denied", attrs...)
	}

	ev := audit.Event{
		Type:         audit.TypeAuthzAllowed,
		KeyID:        d.KeyID,
		Action:       d.Permission,
		ResourceType: d.Resource.Type,
		ResourceID:   d.Resource.ID,
		Outcome:      outcomeFor(d.Reason),
		Reason:       string(d.Reason),
		IP:           req.ClientIP,
		RequestID:    req.RequestID,
	}
	if ev.RequestID == "" {
		ev.RequestID = requestIDFrom(ctx)
	}
	if ev.Action == "" {
		ev.Action = "unknown"
	}
	if !d.Allowed {
		ev.Type = audit.TypeAuthzDenied
	}
	e.emitter.Emit(ctx, ev)
}

package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/store"
)

// Validator authenticates API keys and resolves their permissions.
type Validator struct {
	keys     KeyLookup
	resolver PermissionResolver
	logger   *slog.Logger
	emitter  Emitter
	now      func() time.Time
}

// NewValidator creates a validator. Panics on nil dependencies.
func NewValidator(keys KeyLookup, resolver PermissionResolver, opts ...Option) *Validator {
	if keys == nil {
		panic("authz: key lookup cannot be nil")
	}
	if resolver == nil {
		panic("authz: permission resolver cannot be nil")
	}
	o := newOptions(opts)
	return &Validator{
		keys:     keys,
		resolver: resolver,
		logger:   o.logger.With(logger.Component("authz.validator")),
		emitter:  o.emitter,
		now:      o.now,
	}
}

// Validate authenticates token from clientIP and returns the key with its effective permissions.
// One auth.success or auth.failure audit event is emitted per call.
func (v *Validator) Validate(ctx context.Context, token, clientIP string) (Principal, error) {
	p, reason, err := v.validate(ctx, token, clientIP)

	ev := audit.Event{
		Type:      audit.TypeAuthSuccess,
		KeyID:     p.Key.ID,
		Action:    "authenticate",
		Outcome:   audit.OutcomeSuccess,
		Reason:    string(reason),
		IP:        clientIP,
		RequestID: requestIDFrom(ctx),
	}
	if err != nil {
		ev.Type = audit.TypeAuthFailure
		ev.Outcome = outcomeFor(reason)
	}
	v.emitter.Emit(ctx, ev)

	return p, err
}

// validate runs the checks without emitting audit events.
// On failure the returned Principal still carries the key when one was found.
func (v *Validator) validate(ctx context.Context, token, clientIP string) (Principal, Reason, error) {
	if token == "" {
		return Principal{}, ReasonUnauthenticated, errors.Join(ErrAuthentication, ErrInvalidToken)
	}

	key, err := v.keys.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Principal{}, ReasonUnauthenticated, errors.Join(ErrAuthentication, ErrInvalidToken)
		}
		v.logger.ErrorContext(ctx, "api key lookup failed", logger.Error(err))
		return Principal{}, ReasonStoreUnavailable, storeUnavailable(err)
	}

	p := Principal{Key: key}

	if !key.Active {
		return p, ReasonUnauthenticated, errors.Join(ErrAuthentication, ErrKeyInactive)
	}
	if key.Expired(v.now()) {
		return p, ReasonExpired, errors.Join(ErrAuthentication, ErrKeyExpired)
	}

	if key.Restricted() {
		allow, err := key.AllowList()
		if err != nil {
			// A corrupt allow-list admits nobody.
			v.logger.ErrorContext(ctx, "stored ip allow-list is invalid",
				logger.KeyID(key.ID), logger.Error(err))
			return p, ReasonIPRestricted, errors.Join(ErrAuthorization, ErrIPRestricted, err)
		}
		if !allow.Contains(clientIP) {
			return p, ReasonIPRestricted, errors.Join(ErrAuthorization, ErrIPRestricted)
		}
	}

	perms, err := v.resolver.EffectiveMany(ctx, key.Roles...)
	if err != nil {
		v.logger.ErrorContext(ctx, "role resolution failed", logger.KeyID(key.ID), logger.Error(err))
		return p, ReasonStoreUnavailable, storeUnavailable(err)
	}
	p.Permissions = perms

	return p, ReasonAllowed, nil
}

// storeUnavailable classifies any lookup failure other than a miss as unavailability.
func storeUnavailable(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

func outcomeFor(r Reason) audit.Outcome {
	switch r {
	case ReasonAllowed:
		return audit.OutcomeSuccess
	case ReasonStoreUnavailable:
		return audit.OutcomeError
	default:
		return audit.OutcomeFailure
	}
}

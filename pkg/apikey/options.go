package apikey

import (
	"context"
	"log/slog"
	"time"
)

// RoleChecker verifies that roles exist before they are assigned.
// *rbac.Manager satisfies it.
type RoleChecker interface {
	Exists(ctx context.Context, names ...string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithHasher sets the token hasher. Without it tokens are hashed unkeyed.
func WithHasher(h *Hasher) Option {
	return func(m *Manager) { m.hasher = h }
}

// WithRoleChecker validates roles on Create and SetRoles.
func WithRoleChecker(rc RoleChecker) Option {
	return func(m *Manager) { m.roles = rc }
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

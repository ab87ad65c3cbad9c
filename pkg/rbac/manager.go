package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/permission"
	"github.com/dmitrymomot/authz/pkg/store"
)

// Manager performs administrative operations on role definitions.
// Every write validates the complete inheritance graph before touching the store,
// so a rejected write leaves the store unchanged.
type Manager struct {
	store    store.Store
	logger   *slog.Logger
	resolver *Resolver
	now      func() time.Time
}

// NewManager creates a role manager over s. Panics on nil store.
func NewManager(s store.Store, opts ...Option) *Manager {
	if s == nil {
		panic("rbac: store cannot be nil")
	}
	o := newOptions(opts)
	return &Manager{
		store:    s,
		logger:   o.logger.With(logger.Component("rbac.manager")),
		resolver: o.resolver,
		now:      o.now,
	}
}

// CreateRole stores a new role. Parents must exist and the resulting graph must stay acyclic.
// Re-creating a role with an identical definition is a no-op.
func (m *Manager) CreateRole(ctx context.Context, role Role) (Role, error) {
	role, err := role.normalize()
	if err != nil {
		return Role{}, err
	}

	graph, err := loadGraph(ctx, m.store)
	if err != nil {
		return Role{}, err
	}
	if current, exists := graph[role.Name]; exists {
		if current.sameDefinition(role) {
			return current, nil
		}
		return Role{}, fmt.Errorf("%w: %s", ErrRoleExists, role.Name)
	}

	now := m.now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	graph[role.Name] = role
	if err := validateGraph(graph); err != nil {
		return Role{}, err
	}

	if err := m.save(ctx, role); err != nil {
		return Role{}, err
	}
	m.logger.InfoContext(ctx, "role created", logger.Role(role.Name))
	return role, nil
}

// UpdateRole replaces description, permissions and parents of an existing role.
func (m *Manager) UpdateRole(ctx context.Context, role Role) (Role, error) {
	role, err := role.normalize()
	if err != nil {
		return Role{}, err
	}

	graph, err := loadGraph(ctx, m.store)
	if err != nil {
		return Role{}, err
	}
	current, exists := graph[role.Name]
	if !exists {
		return Role{}, errors.Join(ErrRoleNotFound, store.ErrNotFound)
	}

	role.CreatedAt = current.CreatedAt
	role.UpdatedAt = m.now().UTC()

	graph[role.Name] = role
	if err := validateGraph(graph); err != nil {
		return Role{}, err
	}

	if err := replaceRole(ctx, m.store, role); err != nil {
		return Role{}, err
	}
	m.invalidate()
	m.logger.InfoContext(ctx, "role updated", logger.Role(role.Name))
	return role, nil
}

// GrantPermission adds a permission to the role's declared set.
func (m *Manager) GrantPermission(ctx context.Context, name, perm string) (Role, error) {
	p, err := permission.Parse(perm)
	if err != nil {
		return Role{}, errors.Join(ErrInvalidRole, err)
	}

	role, err := loadRole(ctx, m.store, name)
	if err != nil {
		return Role{}, err
	}
	if slices.Contains(role.Permissions, p.String()) {
		return role, nil
	}

	role.Permissions = append(role.Permissions, p.String())
	return m.UpdateRole(ctx, role)
}

// RevokePermission removes a permission from the role's declared set.
// Inherited grants are not affected.
func (m *Manager) RevokePermission(ctx context.Context, name, perm string) (Role, error) {
	p, err := permission.Parse(perm)
	if err != nil {
		return Role{}, errors.Join(ErrInvalidRole, err)
	}

	role, err := loadRole(ctx, m.store, name)
	if err != nil {
		return Role{}, err
	}
	idx := slices.Index(role.Permissions, p.String())
	if idx < 0 {
		return role, nil
	}

	role.Permissions = slices.Delete(role.Permissions, idx, idx+1)
	return m.UpdateRole(ctx, role)
}

// DeleteRole removes a role. Roles that other roles inherit from cannot be deleted.
// API keys still referencing the role simply stop receiving its permissions.
func (m *Manager) DeleteRole(ctx context.Context, name string) error {
	graph, err := loadGraph(ctx, m.store)
	if err != nil {
		return err
	}
	if _, exists := graph[name]; !exists {
		return errors.Join(ErrRoleNotFound, store.ErrNotFound)
	}
	if deps := dependents(graph, name); len(deps) > 0 {
		return fmt.Errorf("%w: %s is inherited by %v", ErrRoleInUse, name, deps)
	}

	err = m.store.Batch(ctx, func(w store.Writer) {
		w.Delete(RoleKey(name))
		w.SRem(rolesSetKey, name)
	})
	if err != nil {
		return err
	}

	m.invalidate()
	m.logger.InfoContext(ctx, "role deleted", logger.Role(name))
	return nil
}

// GetRole returns a role definition.
func (m *Manager) GetRole(ctx context.Context, name string) (Role, error) {
	return loadRole(ctx, m.store, name)
}

// ListRoles returns every role, base roles first.
func (m *Manager) ListRoles(ctx context.Context) ([]Role, error) {
	graph, err := loadGraph(ctx, m.store)
	if err != nil {
		return nil, err
	}
	return sortRolesByInheritance(graph), nil
}

// Exists reports whether every named role exists.
func (m *Manager) Exists(ctx context.Context, names ...string) error {
	for _, name := range names {
		ok, err := m.store.SIsMember(ctx, rolesSetKey, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %w: %s", ErrRoleNotFound, store.ErrNotFound, name)
		}
	}
	return nil
}

func (m *Manager) save(ctx context.Context, role Role) error {
	if err := saveRole(ctx, m.store, role); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *Manager) invalidate() {
	if m.resolver != nil {
		m.resolver.Invalidate()
	}
}

package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/authz/pkg/cache"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/permission"
	"github.com/dmitrymomot/authz/pkg/store"
)

// Resolver computes effective permission sets by walking the parent graph stored in a Store.
// It is safe for concurrent use and holds no lock across store calls.
type Resolver struct {
	store  store.Store
	logger *slog.Logger
	cache  *cache.TTLCache[string, permission.Set]
}

// NewResolver creates a resolver over s. Panics on nil store.
func NewResolver(s store.Store, opts ...Option) *Resolver {
	if s == nil {
		panic("rbac: store cannot be nil")
	}
	o := newOptions(opts)

	r := &Resolver{
		store:  s,
		logger: o.logger.With(logger.Component("rbac.resolver")),
	}
	if o.cacheCapacity > 0 {
		r.cache = cache.NewTTLCache[string, permission.Set](o.cacheCapacity, o.cacheTTL)
	}
	return r
}

// Effective returns the role's declared permissions united with those of all its ancestors.
// A missing role yields ErrRoleNotFound. Ancestors missing from the store contribute nothing.
func (r *Resolver) Effective(ctx context.Context, role string) (permission.Set, error) {
	if r.cache != nil {
		if set, ok := r.cache.Get(role); ok {
			return set.Clone(), nil
		}
	}

	set, err := r.collect(ctx, role)
	if err != nil {
		return permission.Set{}, err
	}

	if r.cache != nil {
		r.cache.Put(role, set.Clone())
	}
	return set, nil
}

// EffectiveMany unions the effective sets of several roles.
// Roles that no longer exist are skipped and logged; store failures abort.
func (r *Resolver) EffectiveMany(ctx context.Context, roles ...string) (permission.Set, error) {
	var out permission.Set
	for _, role := range roles {
		set, err := r.Effective(ctx, role)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				r.logger.WarnContext(ctx, "assigned role does not exist", logger.Role(role))
				continue
			}
			return permission.Set{}, err
		}
		out.Union(set)
	}
	return out, nil
}

// Invalidate drops every memoized permission set.
func (r *Resolver) Invalidate() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// collect performs an iterative breadth-first walk. The visited set guarantees
// termination even if a cycle slipped into the store.
func (r *Resolver) collect(ctx context.Context, root string) (permission.Set, error) {
	var set permission.Set
	visited := map[string]struct{}{root: {}}
	queue := []string{root}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		role, err := loadRole(ctx, r.store, name)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) && name != root {
				r.logger.WarnContext(ctx, "parent role missing",
					logger.Role(root), slog.String("parent", name))
				continue
			}
			return permission.Set{}, err
		}

		for _, raw := range role.Permissions {
			p, err := permission.Parse(raw)
			if err != nil {
				r.logger.WarnContext(ctx, "skipping malformed stored permission",
					logger.Role(name), logger.Error(err))
				continue
			}
			set.Add(p)
		}

		for _, parent := range role.Parents {
			if _, seen := visited[parent]; seen {
				continue
			}
			visited[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}

	return set, nil
}

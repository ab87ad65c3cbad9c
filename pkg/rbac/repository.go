package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrymomot/authz/pkg/store"
)

// Store layout.
const (
	roleKeyPrefix = "role:"
	rolesSetKey   = "roles"
)

// RoleKey returns the store key holding the role definition.
func RoleKey(name string) string {
	return roleKeyPrefix + name
}

// loadRole reads a single role. A missing role yields an error matching both
// ErrRoleNotFound and store.ErrNotFound.
func loadRole(ctx context.Context, s store.Store, name string) (Role, error) {
	data, err := s.Get(ctx, RoleKey(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Role{}, errors.Join(ErrRoleNotFound, err)
		}
		return Role{}, err
	}

	var role Role
	if err := json.Unmarshal(data, &role); err != nil {
		return Role{}, fmt.Errorf("%w: decode role %q: %w", ErrInvalidRole, name, err)
	}
	role.Name = name
	return role, nil
}

// loadGraph reads every indexed role. Index entries without a definition are skipped.
func loadGraph(ctx context.Context, s store.Store) (map[string]Role, error) {
	names, err := s.SMembers(ctx, rolesSetKey)
	if err != nil {
		return nil, err
	}

	roles := make(map[string]Role, len(names))
	for _, name := range names {
		role, err := loadRole(ctx, s, name)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				continue
			}
			return nil, err
		}
		roles[name] = role
	}
	return roles, nil
}

// replaceRole rewrites an existing definition. A role deleted in the meantime
// is reported as ErrRoleNotFound and is not recreated.
func replaceRole(ctx context.Context, s store.Store, role Role) error {
	data, err := json.Marshal(role)
	if err != nil {
		return err
	}
	if err := s.Replace(ctx, RoleKey(role.Name), data, 0); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Join(ErrRoleNotFound, err)
		}
		return err
	}
	return nil
}

// saveRole writes the definition and its index entry in one batch.
func saveRole(ctx context.Context, s store.Store, role Role) error {
	data, err := json.Marshal(role)
	if err != nil {
		return err
	}
	return s.Batch(ctx, func(w store.Writer) {
		w.Set(RoleKey(role.Name), data, 0)
		w.SAdd(rolesSetKey, role.Name)
	})
}

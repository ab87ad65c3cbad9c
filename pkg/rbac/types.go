package rbac

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/authz/pkg/permission"
)

// MaxInheritanceDepth is the maximum allowed depth of role inheritance
// to prevent excessive nesting.
const MaxInheritanceDepth = 10

// Role is a named set of permissions with optional parent roles.
// A role grants its own permissions plus everything its ancestors grant.
type Role struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Permissions []string  `json:"permissions" yaml:"permissions"`
	Parents     []string  `json:"parents,omitempty" yaml:"parents"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// normalize validates the name and canonicalizes permissions and parents.
func (r Role) normalize() (Role, error) {
	if !validName(r.Name) {
		return Role{}, fmt.Errorf("%w: name %q must match [a-z0-9_-]+", ErrInvalidRole, r.Name)
	}

	perms, err := permission.Normalize(r.Permissions)
	if err != nil {
		return Role{}, errors.Join(ErrInvalidRole, err)
	}
	if perms == nil {
		perms = []string{}
	}
	r.Permissions = perms

	parents := slices.Clone(r.Parents)
	slices.Sort(parents)
	parents = slices.Compact(parents)
	for _, p := range parents {
		if p == r.Name {
			return Role{}, fmt.Errorf("%w: role %q inherits itself", ErrCircularInheritance, r.Name)
		}
		if !validName(p) {
			return Role{}, fmt.Errorf("%w: parent name %q", ErrInvalidRole, p)
		}
	}
	r.Parents = parents

	return r, nil
}

// sameDefinition compares normalized definitions, ignoring timestamps.
func (r Role) sameDefinition(o Role) bool {
	return r.Name == o.Name &&
		r.Description == o.Description &&
		slices.Equal(r.Permissions, o.Permissions) &&
		slices.Equal(r.Parents, o.Parents)
}

func validName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

package rbac

import "errors"

// Domain errors for RBAC operations.
var (
	// ErrRoleNotFound is returned when a role does not exist.
	ErrRoleNotFound = errors.New("rbac.role_not_found")

	// ErrRoleExists is returned when creating a role whose name is taken.
	ErrRoleExists = errors.New("rbac.role_exists")

	// ErrParentNotFound is returned when a role declares a parent that does not exist.
	ErrParentNotFound = errors.New("rbac.parent_not_found")

	// ErrInvalidRole is returned for malformed role names or permissions.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrCircularInheritance is returned when roles have circular inheritance.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")

	// ErrInheritanceTooDeep is returned when an inheritance chain exceeds MaxInheritanceDepth.
	ErrInheritanceTooDeep = errors.New("rbac.inheritance_too_deep")

	// ErrRoleInUse is returned when deleting a role that other roles inherit from.
	ErrRoleInUse = errors.New("rbac.role_in_use")

	// ErrInvalidSeed is returned when a role seed document cannot be decoded.
	ErrInvalidSeed = errors.New("rbac.invalid_seed")
)

package authz

import (
	"errors"

	"github.com/dmitrymomot/authz/pkg/store"
)

// Error kinds. Every error returned by Validator and Engine matches exactly one kind.
var (
	// ErrAuthentication means the caller could not be identified.
	ErrAuthentication = errors.New("authz.authentication")

	// ErrAuthorization means the caller is known but not allowed.
	ErrAuthorization = errors.New("authz.authorization")

	// ErrNotFound is the store's miss error.
	ErrNotFound = store.ErrNotFound

	// ErrStoreUnavailable is the store's unavailability error. Requests fail closed.
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrInvalidRequest means the request itself is malformed.
	ErrInvalidRequest = errors.New("authz.invalid_request")
)

// Details, always joined with their kind.
var (
	ErrInvalidToken           = errors.New("authz.invalid_token")
	ErrKeyExpired             = errors.New("authz.key_expired")
	ErrKeyInactive            = errors.New("authz.key_inactive")
	ErrIPRestricted           = errors.New("authz.ip_restricted")
	ErrInsufficientPermission = errors.New("authz.insufficient_permission")
)

package authz

import (
	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/permission"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowed                Reason = "allowed"
	ReasonUnauthenticated        Reason = "unauthenticated"
	ReasonExpired                Reason = "expired"
	ReasonIPRestricted           Reason = "ip_restricted"
	ReasonInsufficientPermission Reason = "insufficient_permission"
	ReasonStoreUnavailable       Reason = "store_unavailable"
	ReasonInvalidRequest         Reason = "invalid_request"
)

// Resource identifies what a request acts on. It is recorded in audit events only.
type Resource struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Request is a single authorization question.
type Request struct {
	Token      string
	ClientIP   string
	Permission string
	Resource   Resource
	RequestID  string
}

// Decision is the answer to a Request.
type Decision struct {
	Allowed    bool     `json:"allowed"`
	Reason     Reason   `json:"reason"`
	KeyID      string   `json:"key_id,omitempty"`
	Permission string   `json:"permission"`
	Resource   Resource `json:"resource"`
}

// Principal is an authenticated API key with its effective permissions.
type Principal struct {
	Key         apikey.Key
	Permissions permission.Set
}

// Can reports whether the principal holds perm. Malformed permissions are denied.
func (p Principal) Can(perm string) bool {
	return p.Permissions.Allows(perm)
}

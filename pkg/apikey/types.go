package apikey

import (
	"time"

	"github.com/dmitrymomot/authz/pkg/clientip"
)

// Key is a stored API key. It never contains the raw token.
type Key struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Hint           string            `json:"hint"`
	Roles          []string          `json:"roles"`
	AllowedIPs     []string          `json:"allowed_ips,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Active         bool              `json:"active"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Expired reports whether the key has an expiry at or before now.
func (k Key) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Restricted reports whether the key carries an IP allow-list.
func (k Key) Restricted() bool {
	return len(k.AllowedIPs) > 0
}

// AllowList parses the key's allowed source prefixes.
func (k Key) AllowList() (clientip.AllowList, error) {
	return clientip.ParseAllowList(k.AllowedIPs)
}

// CreateParams describes a new key.
type CreateParams struct {
	Name           string
	Description    string
	Roles          []string
	AllowedIPs     []string
	UserID         string
	OrganizationID string
	Metadata       map[string]string
	// ExpiresAt takes precedence over TTL when both are set.
	ExpiresAt *time.Time
	TTL       time.Duration
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/rbac"
)

// CreateKeyRequest is the body of POST /v1/keys.
type CreateKeyRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Roles          []string          `json:"roles"`
	AllowedIPs     []string          `json:"allowed_ips,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	// TTL is a Go duration string such as "720h".
	TTL string `json:"ttl,omitempty"`
}

// CreateKeyResponse carries the raw token. It is never shown again.
type CreateKeyResponse struct {
	Key   apikey.Key `json:"key"`
	Token string     `json:"token"`
}

// UpdateKeyRequest is the body of PATCH /v1/keys/{id}. Absent fields are left unchanged.
type UpdateKeyRequest struct {
	Active     *bool     `json:"active,omitempty"`
	Roles      *[]string `json:"roles,omitempty"`
	AllowedIPs *[]string `json:"allowed_ips,omitempty"`
}

func (s *Service) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.keys.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Service) createKey(w http.ResponseWriter, r *http.Request) {
	var body CreateKeyRequest
	if err := s.bind(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := apikey.CreateParams{
		Name:           body.Name,
		Description:    body.Description,
		Roles:          body.Roles,
		AllowedIPs:     body.AllowedIPs,
		UserID:         body.UserID,
		OrganizationID: body.OrganizationID,
		Metadata:       body.Metadata,
		ExpiresAt:      body.ExpiresAt,
	}
	if body.TTL != "" {
		ttl, err := time.ParseDuration(body.TTL)
		if err != nil || ttl <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: ttl must be a positive duration", ErrBadRequest))
			return
		}
		params.TTL = ttl
	}

	key, token, err := s.keys.Create(r.Context(), params)
	if err != nil {
		s.writeError(w, r, unknownRoleIsBadRequest(err))
		return
	}
	s.record(r.Context(), audit.TypeKeyCreated, "apikey", key.ID, map[string]any{
		"name":  key.Name,
		"roles": key.Roles,
	})
	writeJSON(w, http.StatusCreated, CreateKeyResponse{Key: key, Token: token})
}

func (s *Service) getKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.keys.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (s *Service) updateKey(w http.ResponseWriter, r *http.Request) {
	var body UpdateKeyRequest
	if err := s.bind(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Active == nil && body.Roles == nil && body.AllowedIPs == nil {
		s.writeError(w, r, fmt.Errorf("%w: nothing to update", ErrBadRequest))
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	changed := map[string]any{}

	var (
		key apikey.Key
		err error
	)
	if body.Roles != nil {
		if key, err = s.keys.SetRoles(ctx, id, *body.Roles); err != nil {
			s.writeError(w, r, unknownRoleIsBadRequest(err))
			return
		}
		changed["roles"] = key.Roles
	}
	if body.AllowedIPs != nil {
		if key, err = s.keys.SetIPAllowList(ctx, id, *body.AllowedIPs); err != nil {
			s.writeError(w, r, err)
			return
		}
		changed["allowed_ips"] = key.AllowedIPs
	}
	if body.Active != nil {
		if key, err = s.keys.SetActive(ctx, id, *body.Active); err != nil {
			s.writeError(w, r, err)
			return
		}
		changed["active"] = key.Active
	}

	s.record(ctx, audit.TypeKeyUpdated, "apikey", id, changed)
	writeJSON(w, http.StatusOK, key)
}

func (s *Service) revokeKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.keys.Revoke(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(r.Context(), audit.TypeKeyRevoked, "apikey", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// unknownRoleIsBadRequest reports a missing role named in the body as a client error
// rather than a missing resource.
func unknownRoleIsBadRequest(err error) error {
	if errors.Is(err, rbac.ErrRoleNotFound) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return err
}

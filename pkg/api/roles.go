package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/rbac"
)

// PermissionRequest is the body of POST /v1/roles/{name}/permissions.
type PermissionRequest struct {
	Permission string `json:"permission"`
}

// EffectiveResponse lists a role's effective permissions.
type EffectiveResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (s *Service) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roles.ListRoles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *Service) createRole(w http.ResponseWriter, r *http.Request) {
	var role rbac.Role
	if err := s.bind(r, &role); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.roles.CreateRole(r.Context(), role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(r.Context(), audit.TypeRoleCreated, "role", created.Name, map[string]any{
		"permissions": created.Permissions,
		"parents":     created.Parents,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Service) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.roles.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (s *Service) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	set, err := s.resolver.Effective(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EffectiveResponse{Role: name, Permissions: set.Strings()})
}

func (s *Service) updateRole(w http.ResponseWriter, r *http.Request) {
	var role rbac.Role
	if err := s.bind(r, &role); err != nil {
		s.writeError(w, r, err)
		return
	}
	role.Name = chi.URLParam(r, "name")

	updated, err := s.roles.UpdateRole(r.Context(), role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(r.Context(), audit.TypeRoleUpdated, "role", updated.Name, map[string]any{
		"permissions": updated.Permissions,
		"parents":     updated.Parents,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Service) deleteRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.roles.DeleteRole(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(r.Context(), audit.TypeRoleDeleted, "role", name, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) grantPermission(w http.ResponseWriter, r *http.Request) {
	var body PermissionRequest
	if err := s.bind(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.changePermission(w, r, body.Permission, s.roles.GrantPermission, "grant")
}

func (s *Service) revokePermission(w http.ResponseWriter, r *http.Request) {
	s.changePermission(w, r, r.URL.Query().Get("permission"), s.roles.RevokePermission, "revoke")
}

func (s *Service) changePermission(
	w http.ResponseWriter,
	r *http.Request,
	perm string,
	apply func(ctx context.Context, name, perm string) (rbac.Role, error),
	op string,
) {
	role, err := apply(r.Context(), chi.URLParam(r, "name"), perm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(r.Context(), audit.TypeRoleUpdated, "role", role.Name, map[string]any{
		"operation":  op,
		"permission": perm,
	})
	writeJSON(w, http.StatusOK, role)
}

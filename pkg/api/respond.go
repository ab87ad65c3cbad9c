package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/binder"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/permission"
	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

// ErrorBody is the JSON error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// errorStatus maps domain errors to a status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, binder.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrUntrustedCaller):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, rbac.ErrInvalidRole),
		errors.Is(err, rbac.ErrParentNotFound),
		errors.Is(err, rbac.ErrCircularInheritance),
		errors.Is(err, rbac.ErrInheritanceTooDeep),
		errors.Is(err, apikey.ErrInvalidKey),
		errors.Is(err, permission.ErrInvalidPermission):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, rbac.ErrRoleExists),
		errors.Is(err, rbac.ErrRoleInUse),
		errors.Is(err, apikey.ErrNameTaken):
		return http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, audit.ErrSinkUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, ErrAuditUnavailable),
		errors.Is(err, audit.ErrQueryNotSupported):
		return http.StatusNotImplemented, "not_implemented"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	body := ErrorBody{Error: code}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else {
		body.Message = err.Error()
	}
	s.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		logger.Error(err),
	)
	writeJSON(w, status, body)
}

package authz

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrymomot/authz/pkg/clientip"
	"github.com/dmitrymomot/authz/pkg/requestid"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	cfg      Config
	resource func(*http.Request) Resource
	onDeny   func(http.ResponseWriter, *http.Request, Decision)
}

// WithConfig sets the header settings.
func WithConfig(cfg Config) MiddlewareOption {
	return func(o *middlewareOptions) { o.cfg = cfg }
}

// WithResource derives the audited resource from the request.
func WithResource(fn func(*http.Request) Resource) MiddlewareOption {
	return func(o *middlewareOptions) { o.resource = fn }
}

// WithDenyHandler replaces the default JSON error response.
func WithDenyHandler(fn func(http.ResponseWriter, *http.Request, Decision)) MiddlewareOption {
	return func(o *middlewareOptions) { o.onDeny = fn }
}

// Middleware requires perm for every request except CORS preflight.
// The allowed principal is stored in the request context.
func Middleware(e *Engine, perm string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{cfg: DefaultConfig(), onDeny: WriteDenied}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			req := Request{
				Token:      TokenFromRequest(r, o.cfg),
				ClientIP:   clientip.FromRequest(r),
				Permission: perm,
				RequestID:  requestid.FromContext(r.Context()),
			}
			if o.resource != nil {
				req.Resource = o.resource(r)
			}

			p, d, _ := e.Authorize(r.Context(), req)
			if !d.Allowed {
				o.onDeny(w, r, d)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// TokenFromRequest reads the API key header, then an Authorization bearer token if allowed.
func TokenFromRequest(r *http.Request, cfg Config) string {
	header := cfg.APIKeyHeader
	if header == "" {
		header = DefaultConfig().APIKeyHeader
	}
	if tok := strings.TrimSpace(r.Header.Get(header)); tok != "" {
		return tok
	}
	if cfg.AllowBearer {
		auth := r.Header.Get("Authorization")
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
	}
	return ""
}

// StatusCode maps a decision reason to an HTTP status.
func StatusCode(r Reason) int {
	switch r {
	case ReasonAllowed:
		return http.StatusOK
	case ReasonUnauthenticated, ReasonExpired:
		return http.StatusUnauthorized
	case ReasonIPRestricted, ReasonInsufficientPermission:
		return http.StatusForbidden
	case ReasonStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// ErrorResponse is the JSON body written for denied requests.
type ErrorResponse struct {
	Error      string `json:"error"`
	Permission string `json:"permission,omitempty"`
}

// WriteDenied writes the default JSON denial.
func WriteDenied(w http.ResponseWriter, _ *http.Request, d Decision) {
	status := StatusCode(d.Reason)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{Error: string(d.Reason)}
	if d.Reason == ReasonInsufficientPermission {
		resp.Permission = d.Permission
	}
	_ = json.NewEncoder(w).Encode(resp)
}

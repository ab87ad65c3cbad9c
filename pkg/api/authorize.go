package api

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/clientip"
	"github.com/dmitrymomot/authz/pkg/requestid"
)

// AuthorizeRequest is the body of POST /v1/authorize.
// Token and ClientIP fall back to the request's own credential header and client address.
// ClientIP is honored only from trusted callers, see WithTrustedCallers.
type AuthorizeRequest struct {
	Token      string         `json:"token,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Permission string         `json:"permission"`
	Resource   authz.Resource `json:"resource"`
}

// authorize answers 200 with the decision for policy outcomes, so callers branch on
// decision.allowed. Unusable requests and store outages keep their HTTP status.
func (s *Service) authorize(w http.ResponseWriter, r *http.Request) {
	var body AuthorizeRequest
	if err := s.bind(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := clientip.FromRequest(r)
	if body.ClientIP != "" && !s.trusted.Contains(caller) {
		s.logger.WarnContext(r.Context(), "client_ip override from untrusted caller",
			slog.String("caller", caller),
		)
		s.writeError(w, r, ErrUntrustedCaller)
		return
	}

	req := authz.Request{
		Token:      body.Token,
		ClientIP:   body.ClientIP,
		Permission: body.Permission,
		Resource:   body.Resource,
		RequestID:  requestid.FromContext(r.Context()),
	}
	if req.Token == "" {
		req.Token = authz.TokenFromRequest(r, s.cfg)
	}
	if req.ClientIP == "" {
		req.ClientIP = caller
	}

	d, _ := s.engine.Check(r.Context(), req)

	status := http.StatusOK
	switch d.Reason {
	case authz.ReasonInvalidRequest:
		status = http.StatusBadRequest
	case authz.ReasonStoreUnavailable:
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, d)
}

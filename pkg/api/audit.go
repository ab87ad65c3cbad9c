package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrymomot/authz/pkg/audit"
)

// AuditResponse is the body of GET /v1/audit.
type AuditResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

func (s *Service) queryAudit(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, r, ErrAuditUnavailable)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.events.Find(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, AuditResponse{Events: events, Count: len(events)})
}

// exportAudit streams matching events as JSON lines for offline chain verification.
func (s *Service) exportAudit(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, r, ErrAuditUnavailable)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	n, err := s.events.Export(r.Context(), c, &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Event-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// parseCriteria reads from, to (RFC 3339), type (repeatable), key_id, outcome, limit and offset.
func parseCriteria(q url.Values) (audit.Criteria, error) {
	c := audit.Criteria{
		Types:   q["type"],
		KeyID:   q.Get("key_id"),
		Outcome: audit.Outcome(q.Get("outcome")),
	}

	var err error
	if v := q.Get("from"); v != "" {
		if c.From, err = time.Parse(time.RFC3339, v); err != nil {
			return c, fmt.Errorf("%w: from: %w", ErrBadRequest, err)
		}
	}
	if v := q.Get("to"); v != "" {
		if c.To, err = time.Parse(time.RFC3339, v); err != nil {
			return c, fmt.Errorf("%w: to: %w", ErrBadRequest, err)
		}
	}
	if v := q.Get("limit"); v != "" {
		if c.Limit, err = strconv.Atoi(v); err != nil || c.Limit < 0 {
			return c, fmt.Errorf("%w: limit must be a non-negative integer", ErrBadRequest)
		}
	}
	if v := q.Get("offset"); v != "" {
		if c.Offset, err = strconv.Atoi(v); err != nil || c.Offset < 0 {
			return c, fmt.Errorf("%w: offset must be a non-negative integer", ErrBadRequest)
		}
	}
	switch c.Outcome {
	case "", audit.OutcomeSuccess, audit.OutcomeFailure, audit.OutcomeError:
	default:
		return c, fmt.Errorf("%w: unknown outcome %q", ErrBadRequest, c.Outcome)
	}
	return c, nil
}

package api

import "errors"

var (
	ErrBadRequest       = errors.New("api.bad_request")
	ErrAuditUnavailable = errors.New("api.audit_query_unavailable")

	// ErrUntrustedCaller rejects a client_ip override from a caller outside the trusted list.
	ErrUntrustedCaller = errors.New("api.untrusted_caller")
)

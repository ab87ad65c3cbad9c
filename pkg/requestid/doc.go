// Package requestid propagates a correlation id through HTTP requests, audit events and logs.
//
// Middleware reuses a well-formed X-Request-ID header from the caller or generates a UUID,
// stores it in the request context and echoes it in the response. Audit events produced while
// handling the request carry the same id, so a decision can be traced back to the access log.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	http.ListenAndServe(":8080", requestid.Middleware(mux))
package requestid

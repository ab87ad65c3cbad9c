// Package binder decodes HTTP request bodies into typed structs.
//
// JSON enforces the application/json content type, a body size limit
// (DefaultMaxJSONSize unless WithMaxSize is given), a single JSON value and no
// unknown fields. After decoding, string fields, slices of strings and string
// map values are trimmed and stripped of control characters.
//
// Failures are classified by sentinel errors so callers can map them to
// statuses: ErrMissingContentType and ErrUnsupportedMediaType (415),
// ErrBodyTooLarge (413), ErrFailedToParseJSON (400).
package binder

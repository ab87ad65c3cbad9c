package binder

import "errors"

var (
	ErrMissingContentType   = errors.New("binder.missing_content_type")
	ErrUnsupportedMediaType = errors.New("binder.unsupported_media_type")
	ErrBodyTooLarge         = errors.New("binder.body_too_large")
	ErrFailedToParseJSON    = errors.New("binder.invalid_json")
)

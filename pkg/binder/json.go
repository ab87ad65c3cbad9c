package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize is the default maximum size for JSON request bodies (1MB).
const DefaultMaxJSONSize = 1 << 20

// Func binds a request into v.
type Func func(r *http.Request, v any) error

type jsonOptions struct {
	maxSize int64
}

// JSONOption configures the JSON binder.
type JSONOption func(*jsonOptions)

// WithMaxSize overrides DefaultMaxJSONSize. Non-positive values are ignored.
func WithMaxSize(n int64) JSONOption {
	return func(o *jsonOptions) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// JSON creates a strict JSON binder: the content type must be application/json,
// the body must fit the size limit and hold exactly one value without unknown
// fields. String fields are sanitized after decoding.
//
//	bind := binder.JSON()
//	var req CreateKeyRequest
//	if err := bind(r, &req); err != nil {
//		// errors.Is(err, binder.ErrUnsupportedMediaType) ...
//	}
func JSON(opts ...JSONOption) Func {
	o := jsonOptions{maxSize: DefaultMaxJSONSize}
	for _, opt := range opts {
		opt(&o)
	}

	return func(r *http.Request, v any) error {
		if err := r.Context().Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToParseJSON, err)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %q, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, o.maxSize+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %w", ErrFailedToParseJSON, err)
		}
		if int64(len(body)) > o.maxSize {
			return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, o.maxSize)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			return fmt.Errorf("%w: %w", ErrFailedToParseJSON, err)
		}
		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrFailedToParseJSON)
		}

		sanitize(v)
		return nil
	}
}

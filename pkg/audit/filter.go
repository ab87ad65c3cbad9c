package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FilterAction is applied to a matching metadata field.
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// Credential-bearing fields stripped from metadata by default.
// A leading or trailing "*" matches a suffix or prefix.
var defaultCredentialFields = map[string]FilterAction{
	"token":         FilterActionRemove,
	"api_key":       FilterActionRemove,
	"apikey":        FilterActionRemove,
	"x-api-key":     FilterActionRemove,
	"authorization": FilterActionRemove,
	"password":      FilterActionRemove,
	"secret":        FilterActionRemove,
	"*_token":       FilterActionRemove,
	"*_secret":      FilterActionRemove,
	"email":         FilterActionHash,
}

// MetadataFilter removes or obscures sensitive metadata before events leave the process.
type MetadataFilter struct {
	rules   map[string]FilterAction
	allowed map[string]bool
}

// FilterOption configures a MetadataFilter.
type FilterOption func(*MetadataFilter)

// NewMetadataFilter creates a filter with the default credential rules.
func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{
		rules:   make(map[string]FilterAction, len(defaultCredentialFields)),
		allowed: make(map[string]bool),
	}
	for k, v := range defaultCredentialFields {
		f.rules[k] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithFieldRule adds or overrides the rule for a field or pattern.
func WithFieldRule(field string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.rules[strings.ToLower(field)] = action
	}
}

// WithAllowedField lets a field through unfiltered.
func WithAllowedField(field string) FilterOption {
	return func(f *MetadataFilter) {
		f.allowed[strings.ToLower(field)] = true
	}
}

// Filter returns a filtered copy of metadata. Nested maps are filtered recursively.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if f.allowed[lower] {
			out[key] = value
			continue
		}

		action, ok := f.rule(lower)
		if !ok {
			if nested, isMap := value.(map[string]any); isMap {
				value = f.Filter(nested)
			}
			out[key] = value
			continue
		}

		switch action {
		case FilterActionHash:
			out[key] = hashValue(value)
		case FilterActionMask:
			out[key] = maskValue(value)
		}
	}
	return out
}

func (f *MetadataFilter) rule(key string) (FilterAction, bool) {
	if a, ok := f.rules[key]; ok {
		return a, true
	}
	for pattern, a := range f.rules {
		switch {
		case strings.HasPrefix(pattern, "*") && strings.HasSuffix(key, pattern[1:]):
			return a, true
		case strings.HasSuffix(pattern, "*") && strings.HasPrefix(key, pattern[:len(pattern)-1]):
			return a, true
		}
	}
	return "", false
}

func hashValue(v any) string {
	sum := sha256.Sum256([]byte(fmt.Sprint(v)))
	return "sha256:" + hex.EncodeToString(sum[:8])
}

func maskValue(v any) string {
	s := fmt.Sprint(v)
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

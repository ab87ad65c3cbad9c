package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// OrganizationID records the organization identifier under the key "organization_id".
// If id is nil, it returns an empty Attr.
func OrganizationID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("organization_id", id)
}

// KeyID records the API key identifier under the key "key_id".
// An empty id yields an empty Attr.
func KeyID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("key_id", id)
}

// Permission records a requested permission under the key "permission".
func Permission(p string) slog.Attr {
	return slog.String("permission", p)
}

// Reason records a decision reason under the key "reason".
func Reason(r string) slog.Attr {
	return slog.String("reason", r)
}

// Outcome records an audit outcome under the key "outcome".
func Outcome(o string) slog.Attr {
	return slog.String("outcome", o)
}

// Role records a role name under the key "role".
// If role is nil, it returns an empty Attr.
func Role(role any) slog.Attr {
	if role == nil {
		return slog.Attr{}
	}
	return slog.Any("role", role)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// EventType records the event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

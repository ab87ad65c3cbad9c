package audit

import (
	"fmt"
	"time"
)

// Outcome is the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeError   Outcome = "error"
)

// Event types.
const (
	TypeAuthSuccess   = "auth.success"
	TypeAuthFailure   = "auth.failure"
	TypeAuthzAllowed  = "authz.allowed"
	TypeAuthzDenied   = "authz.denied"
	TypeRoleCreated   = "role.created"
	TypeRoleUpdated   = "role.updated"
	TypeRoleDeleted   = "role.deleted"
	TypeKeyCreated    = "apikey.created"
	TypeKeyUpdated    = "apikey.updated"
	TypeKeyRevoked    = "apikey.revoked"
	TypeSystemStartup = "system.startup"
)

// Event is an immutable audit record.
type Event struct {
	ID           string         `json:"id" bson:"_id"`
	Seq          int64          `json:"seq" bson:"seq"`
	Timestamp    time.Time      `json:"timestamp" bson:"timestamp"`
	Type         string         `json:"type" bson:"type"`
	KeyID        string         `json:"key_id,omitempty" bson:"key_id,omitempty"`
	Actor        string         `json:"actor,omitempty" bson:"actor,omitempty"`
	Action       string         `json:"action" bson:"action"`
	ResourceType string         `json:"resource_type,omitempty" bson:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Outcome      Outcome        `json:"outcome" bson:"outcome"`
	Reason       string         `json:"reason,omitempty" bson:"reason,omitempty"`
	IP           string         `json:"ip,omitempty" bson:"ip,omitempty"`
	RequestID    string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	PrevHash     string         `json:"prev_hash" bson:"prev_hash"`
	Hash         string         `json:"hash" bson:"hash"`
}

// Validate checks that the event has all required fields.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEvent)
	}
	switch e.Outcome {
	case OutcomeSuccess, OutcomeFailure, OutcomeError:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidEvent, e.Outcome)
	}
	return nil
}

package authgate

import (
	"io"
	"time"

	internalaudit "github.com/nuralyx/authgate/internal/audit"
)

// Principal is the authenticated identity attached to a request after a
// successful token verification. SubjectID is the canonical owner
// identifier used by the isolation layer.
type Principal struct {
	SubjectID string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Decision is the outcome of a single [Gate.Authenticate] call.
type Decision uint8

const (
	// DecisionRejected is an exported constant or variable used by the authentication gateway.
	DecisionRejected Decision = iota
	// DecisionPublic is an exported constant or variable used by the authentication gateway.
	DecisionPublic
	// DecisionAuthorized is an exported constant or variable used by the authentication gateway.
	DecisionAuthorized
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d Decision) String() string {
	switch d {
	case DecisionPublic:
		return "public"
	case DecisionAuthorized:
		return "authorized"
	default:
		return "rejected"
	}
}

// AuditEvent is a structured audit record emitted by the gateway.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the gateway's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

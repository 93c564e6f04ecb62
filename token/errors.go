package token

import "errors"

var (
	// ErrMalformed is an exported constant or variable used by the authentication gateway.
	ErrMalformed = errors.New("token malformed")
	// ErrBadSignature is an exported constant or variable used by the authentication gateway.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrExpired is an exported constant or variable used by the authentication gateway.
	ErrExpired = errors.New("token expired")
	// ErrMissingClaim is an exported constant or variable used by the authentication gateway.
	ErrMissingClaim = errors.New("token missing required claim")
)

// Kind defines a public type used by authgate APIs.
//
// Kind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Kind uint8

const (
	// KindUnknown is an exported constant or variable used by the authentication gateway.
	KindUnknown Kind = iota
	// KindMalformed is an exported constant or variable used by the authentication gateway.
	KindMalformed
	// KindBadSignature is an exported constant or variable used by the authentication gateway.
	KindBadSignature
	// KindExpired is an exported constant or variable used by the authentication gateway.
	KindExpired
	// KindMissingClaim is an exported constant or variable used by the authentication gateway.
	KindMissingClaim
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	case KindMissingClaim:
		return "missing_claim"
	default:
		return "unknown"
	}
}

// Classify maps a Verify error to its [Kind]. The kind is for logging
// and metrics only; callers must surface one generic failure to clients.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrBadSignature):
		return KindBadSignature
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrMissingClaim):
		return KindMissingClaim
	default:
		return KindUnknown
	}
}

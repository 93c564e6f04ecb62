package authgate

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication gateway.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingToken is an exported constant or variable used by the authentication gateway.
	ErrMissingToken = errors.New("missing authentication token")
	// ErrTokenInvalid is an exported constant or variable used by the authentication gateway.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrAuthRateLimited is an exported constant or variable used by the authentication gateway.
	ErrAuthRateLimited = errors.New("authentication rate limited")
	// ErrPathOwnerMismatch is an exported constant or variable used by the authentication gateway.
	ErrPathOwnerMismatch = errors.New("path owner does not match authenticated subject")
	// ErrResourceNotFound is an exported constant or variable used by the authentication gateway.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrGateNotReady is an exported constant or variable used by the authentication gateway.
	ErrGateNotReady = errors.New("gate not initialized")
)

package rate

import "errors"

var (
	// ErrRateLimited is an exported constant or variable used by the authentication gateway.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable is an exported constant or variable used by the authentication gateway.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

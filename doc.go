// Package authgate provides the authentication gateway and user-isolation
// enforcement layer for user-scoped HTTP services: bearer-token verification,
// fail-closed route classification, and owner-scoped resource access.
//
// The package is designed for concurrent server workloads: Gate methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Gate], [Builder], [Config], and
// value types (Principal, MetricsSnapshot, audit sinks). Token parsing lives
// in token/, route classification in routes/, HTTP adaptation in middleware/,
// and ownership enforcement plus owner-scoped storage in isolation/. Internal
// coordination — metrics, audit dispatch, auth-failure throttling — lives
// under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Perform I/O outside of Gate methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authgate (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. Token verification and route classification
// are pure in-memory computations with no Redis round-trips; only the
// optional auth-failure throttle touches Redis, and rejection always happens
// before any handler or storage work.
package authgate

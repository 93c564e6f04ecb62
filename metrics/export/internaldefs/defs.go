package internaldefs

import (
	authgate "github.com/nuralyx/authgate"
)

// CounterDef defines a public type used by authgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authgate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication gateway.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricAuthPublic, Name: "authgate_auth_public_total", Help: "Requests classified as public."},
	{ID: authgate.MetricAuthAuthorized, Name: "authgate_auth_authorized_total", Help: "Requests authorized with a verified token."},
	{ID: authgate.MetricAuthRejectedMissingToken, Name: "authgate_auth_rejected_missing_token_total", Help: "Protected requests rejected for a missing bearer token."},
	{ID: authgate.MetricAuthRejectedMalformed, Name: "authgate_auth_rejected_malformed_total", Help: "Requests rejected for a malformed token."},
	{ID: authgate.MetricAuthRejectedBadSignature, Name: "authgate_auth_rejected_bad_signature_total", Help: "Requests rejected for an invalid token signature or algorithm."},
	{ID: authgate.MetricAuthRejectedExpired, Name: "authgate_auth_rejected_expired_total", Help: "Requests rejected for an expired token."},
	{ID: authgate.MetricAuthRejectedMissingClaim, Name: "authgate_auth_rejected_missing_claim_total", Help: "Requests rejected for an absent or empty subject claim."},
	{ID: authgate.MetricAuthThrottled, Name: "authgate_auth_throttled_total", Help: "Requests rejected by the auth-failure throttle."},
	{ID: authgate.MetricTokenIssued, Name: "authgate_token_issued_total", Help: "Tokens issued."},
	{ID: authgate.MetricOwnerPathMismatch, Name: "authgate_owner_path_mismatch_total", Help: "Requests rejected because the path owner did not match the subject."},
	{ID: authgate.MetricResourceNotFound, Name: "authgate_resource_not_found_total", Help: "Scoped lookups that found no resource."},
	{ID: authgate.MetricResourceListed, Name: "authgate_resource_listed_total", Help: "Owner-scoped list operations."},
	{ID: authgate.MetricResourceCreated, Name: "authgate_resource_created_total", Help: "Owner-scoped create operations."},
	{ID: authgate.MetricResourceUpdated, Name: "authgate_resource_updated_total", Help: "Owner-scoped update operations."},
	{ID: authgate.MetricResourceDeleted, Name: "authgate_resource_deleted_total", Help: "Owner-scoped delete operations."},
}

// HistogramDefs is an exported constant or variable used by the authentication gateway.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricAuthenticateLatency, Name: "authgate_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication gateway.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication gateway.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

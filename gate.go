package authgate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	internalaudit "github.com/nuralyx/authgate/internal/audit"
	"github.com/nuralyx/authgate/internal/rate"
	"github.com/nuralyx/authgate/routes"
	"github.com/nuralyx/authgate/token"
)

// Gate is the per-request authentication decision engine. It combines
// the token codec, the route classification table, the optional
// auth-failure throttle, and the audit/metrics subsystems. A Gate is
// immutable after [Builder.Build] and safe for concurrent use.
type Gate struct {
	config  Config
	codec   *token.Codec
	routes  *routes.Table
	limiter *rate.Limiter
	metrics *Metrics
	audit   *internalaudit.Dispatcher
}

// Authenticate runs the per-request decision state machine:
//
//	classify -> public passes without reading the header
//	         -> protected requires a bearer token
//	         -> any token failure rejects with one generic error
//
// The returned error is always one of the root sentinels; the token
// error taxonomy never leaks to callers.
func (g *Gate) Authenticate(ctx context.Context, method, path, authorization string) (*Principal, Decision, error) {
	if g == nil {
		return nil, DecisionRejected, ErrGateNotReady
	}

	start := time.Now()
	normalized := g.routes.Normalize(path)
	ip := clientIPFromContext(ctx)

	if g.routes.Classify(method, path) == routes.Public {
		g.metrics.Inc(MetricAuthPublic)
		g.emitDecision(ctx, DecisionPublic, method, normalized, "", ip, "", "")
		return nil, DecisionPublic, nil
	}

	if g.limiter != nil {
		if err := g.limiter.CheckAuth(ctx, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				g.metrics.Inc(MetricAuthThrottled)
				g.emitDecision(ctx, DecisionRejected, method, normalized, "", ip, "", "throttled")
				return nil, DecisionRejected, ErrAuthRateLimited
			}
			// Redis being down must not lock every client out; the
			// token check below still gates the request.
		}
	}

	raw, ok := bearerToken(authorization)
	if !ok {
		g.metrics.Inc(MetricAuthRejectedMissingToken)
		g.recordFailure(ctx, ip)
		g.emitDecision(ctx, DecisionRejected, method, normalized, "", ip, "", "missing_token")
		return nil, DecisionRejected, ErrMissingToken
	}

	claims, err := g.codec.Verify(raw)
	if err != nil {
		kind := token.Classify(err)
		g.metrics.Inc(metricForTokenKind(kind))
		g.recordFailure(ctx, ip)
		g.emitDecision(ctx, DecisionRejected, method, normalized, "", ip, HashToken(raw), kind.String())
		return nil, DecisionRejected, ErrTokenInvalid
	}

	principal := &Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	g.metrics.Inc(MetricAuthAuthorized)
	g.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	g.emitDecision(ctx, DecisionAuthorized, method, normalized, principal.SubjectID, ip, HashToken(raw), "")

	return principal, DecisionAuthorized, nil
}

// Verify validates a raw token without route classification. Used by
// callers that already know the route is protected.
func (g *Gate) Verify(tokenStr string) (*Principal, error) {
	if g == nil {
		return nil, ErrGateNotReady
	}

	claims, err := g.codec.Verify(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	principal := &Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	return principal, nil
}

// Issue signs a token for the subject using the configured TTL.
func (g *Gate) Issue(subjectID string) (string, error) {
	if g == nil {
		return "", ErrGateNotReady
	}

	signed, err := g.codec.Issue(subjectID)
	if err != nil {
		return "", err
	}

	g.metrics.Inc(MetricTokenIssued)
	return signed, nil
}

// Classify exposes the route table decision for a request line.
func (g *Gate) Classify(method, path string) routes.Class {
	if g == nil {
		return routes.Protected
	}
	return g.routes.Classify(method, path)
}

// NormalizePath exposes the canonical form of a request path.
func (g *Gate) NormalizePath(path string) string {
	if g == nil {
		return path
	}
	return g.routes.Normalize(path)
}

// ResetThrottle clears the auth-failure counter for an IP. Called by
// issuance flows after a successful credential check.
func (g *Gate) ResetThrottle(ctx context.Context, ip string) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	return g.limiter.ResetAuth(ctx, ip)
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Gate) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// Metrics returns the gate's metrics handle so that supporting
// subsystems (stores, handlers) can record gateway-scoped counters.
func (g *Gate) Metrics() *Metrics {
	if g == nil {
		return nil
	}
	return g.metrics
}

// Metric returns the current value of a single counter.
func (g *Gate) Metric(id MetricID) uint64 {
	if g == nil {
		return 0
	}
	return g.metrics.Value(id)
}

// Close drains and stops the audit dispatcher.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

func (g *Gate) recordFailure(ctx context.Context, ip string) {
	if g.limiter == nil {
		return
	}
	// Counter maintenance only; the throttle verdict is delivered on
	// the next request's CheckAuth.
	_ = g.limiter.RecordAuthFailure(ctx, ip)
}

func (g *Gate) emitDecision(ctx context.Context, decision Decision, method, path, subjectID, ip, tokenHash, errKind string) {
	if g.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: "auth.decision",
		Decision:  decision.String(),
		Method:    method,
		Path:      path,
		SubjectID: subjectID,
		IP:        ip,
		TokenHash: tokenHash,
		Success:   decision != DecisionRejected,
		Error:     errKind,
	}
	if userAgent := userAgentFromContext(ctx); userAgent != "" {
		event.Metadata = map[string]string{"user_agent": userAgent}
	}

	g.audit.Emit(ctx, event)
}

func metricForTokenKind(kind token.Kind) MetricID {
	switch kind {
	case token.KindBadSignature:
		return MetricAuthRejectedBadSignature
	case token.KindExpired:
		return MetricAuthRejectedExpired
	case token.KindMissingClaim:
		return MetricAuthRejectedMissingClaim
	default:
		return MetricAuthRejectedMalformed
	}
}

// HashToken returns a truncated SHA-256 hex digest for audit logging.
// The raw token never reaches a log line.
func HashToken(tokenStr string) string {
	if tokenStr == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])[:16]
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) <= len(bearer) || value[:len(bearer)] != bearer {
		return "", false
	}

	tokenStr := value[len(bearer):]
	if tokenStr == "" {
		return "", false
	}

	return tokenStr, true
}

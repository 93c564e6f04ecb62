package authgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestGate(t *testing.T) *Gate {
	t.Helper()

	gate, err := New().WithSecret(testSecret).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gate.Close)

	return gate
}

func newThrottledGate(t *testing.T, maxFailures int) (*Gate, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Throttle.EnableIPThrottle = true
	cfg.Throttle.MaxAuthFailures = maxFailures
	cfg.Throttle.AuthCooldown = time.Minute
	cfg.Metrics.Enabled = true

	gate, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gate.Close)

	return gate, mr
}

func TestAuthenticateNilGate(t *testing.T) {
	var gate *Gate

	_, decision, err := gate.Authenticate(context.Background(), "GET", "/health", "")
	if !errors.Is(err, ErrGateNotReady) {
		t.Fatalf("expected ErrGateNotReady, got %v", err)
	}
	if decision != DecisionRejected {
		t.Fatalf("expected DecisionRejected, got %v", decision)
	}
}

func TestAuthenticatePublicRoute(t *testing.T) {
	gate := newTestGate(t)

	principal, decision, err := gate.Authenticate(context.Background(), "POST", "/auth/login", "")
	if err != nil {
		t.Fatalf("expected public route to pass, got %v", err)
	}
	if decision != DecisionPublic {
		t.Fatalf("expected DecisionPublic, got %v", decision)
	}
	if principal != nil {
		t.Fatalf("public route must not produce a principal, got %+v", principal)
	}
	if got := gate.Metric(MetricAuthPublic); got != 1 {
		t.Fatalf("expected public counter 1, got %d", got)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	gate := newTestGate(t)

	_, decision, err := gate.Authenticate(context.Background(), "GET", "/users/42/tasks", "")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if decision != DecisionRejected {
		t.Fatalf("expected DecisionRejected, got %v", decision)
	}
	if got := gate.Metric(MetricAuthRejectedMissingToken); got != 1 {
		t.Fatalf("expected missing-token counter 1, got %d", got)
	}
}

func TestAuthenticateHeaderShapeVariants(t *testing.T) {
	gate := newTestGate(t)

	// Everything that is not exactly "Bearer <token>" counts as missing.
	headers := []string{
		"Bearer",
		"Bearer ",
		"bearer sometoken",
		"Basic dXNlcjpwYXNz",
		"sometoken",
	}

	for _, header := range headers {
		_, _, err := gate.Authenticate(context.Background(), "GET", "/users/42/tasks", header)
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("header %q: expected ErrMissingToken, got %v", header, err)
		}
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	gate := newTestGate(t)

	_, decision, err := gate.Authenticate(context.Background(), "GET", "/users/42/tasks", "Bearer garbage")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if decision != DecisionRejected {
		t.Fatalf("expected DecisionRejected, got %v", decision)
	}
	if got := gate.Metric(MetricAuthRejectedMalformed); got != 1 {
		t.Fatalf("expected malformed counter 1, got %d", got)
	}
}

func TestAuthenticateAuthorized(t *testing.T) {
	gate := newTestGate(t)

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principal, decision, err := gate.Authenticate(context.Background(), "GET", "/users/user-123/tasks", "Bearer "+raw)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if decision != DecisionAuthorized {
		t.Fatalf("expected DecisionAuthorized, got %v", decision)
	}
	if principal == nil || principal.SubjectID != "user-123" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if principal.IssuedAt.IsZero() || principal.ExpiresAt.IsZero() {
		t.Fatalf("expected principal timestamps, got %+v", principal)
	}
	if got := gate.Metric(MetricAuthAuthorized); got != 1 {
		t.Fatalf("expected authorized counter 1, got %d", got)
	}
}

func TestAuthenticateMountedPathAuthorized(t *testing.T) {
	gate := newTestGate(t)

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, decision, err := gate.Authenticate(context.Background(), "GET", "/api/v1/users/user-123/tasks", "Bearer "+raw)
	if err != nil || decision != DecisionAuthorized {
		t.Fatalf("expected authorized mounted route, got decision=%v err=%v", decision, err)
	}
}

func TestIssueIncrementsCounter(t *testing.T) {
	gate := newTestGate(t)

	if _, err := gate.Issue("user-123"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if got := gate.Metric(MetricTokenIssued); got != 1 {
		t.Fatalf("expected issued counter 1, got %d", got)
	}
}

func TestVerifyGenericError(t *testing.T) {
	gate := newTestGate(t)

	if _, err := gate.Verify("garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	principal, err := gate.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if principal.SubjectID != "user-123" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestThrottleBlocksAfterRepeatedFailures(t *testing.T) {
	gate, _ := newThrottledGate(t, 2)
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	// Each failed attempt increments the counter. Once past the budget,
	// the next request is rejected before the token is even parsed.
	for i := 0; i < 3; i++ {
		_, _, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage")
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("attempt %d: expected ErrTokenInvalid, got %v", i, err)
		}
	}

	_, decision, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage")
	if !errors.Is(err, ErrAuthRateLimited) {
		t.Fatalf("expected ErrAuthRateLimited, got %v", err)
	}
	if decision != DecisionRejected {
		t.Fatalf("expected DecisionRejected, got %v", decision)
	}
	if got := gate.Metric(MetricAuthThrottled); got != 1 {
		t.Fatalf("expected throttled counter 1, got %d", got)
	}
}

func TestThrottleIsPerIP(t *testing.T) {
	gate, _ := newThrottledGate(t, 2)
	blocked := WithClientIP(context.Background(), "10.0.0.1")
	other := WithClientIP(context.Background(), "10.0.0.2")

	for i := 0; i < 3; i++ {
		_, _, _ = gate.Authenticate(blocked, "GET", "/users/42/tasks", "Bearer garbage")
	}

	if _, _, err := gate.Authenticate(blocked, "GET", "/users/42/tasks", "Bearer garbage"); !errors.Is(err, ErrAuthRateLimited) {
		t.Fatalf("expected blocked IP to be throttled, got %v", err)
	}

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, decision, err := gate.Authenticate(other, "GET", "/users/42/tasks", "Bearer "+raw); err != nil || decision != DecisionAuthorized {
		t.Fatalf("other IP must not be throttled, got decision=%v err=%v", decision, err)
	}
}

func TestThrottleResetClearsCounter(t *testing.T) {
	gate, _ := newThrottledGate(t, 2)
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	for i := 0; i < 4; i++ {
		_, _, _ = gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage")
	}
	if _, _, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage"); !errors.Is(err, ErrAuthRateLimited) {
		t.Fatalf("expected throttled before reset, got %v", err)
	}

	if err := gate.ResetThrottle(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("ResetThrottle failed: %v", err)
	}

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, decision, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer "+raw); err != nil || decision != DecisionAuthorized {
		t.Fatalf("expected authorized after reset, got decision=%v err=%v", decision, err)
	}
}

func TestThrottleFailsOpenWhenRedisDown(t *testing.T) {
	gate, mr := newThrottledGate(t, 2)
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	mr.Close()

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// The counter backend is gone; valid tokens must still pass.
	_, decision, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer "+raw)
	if err != nil || decision != DecisionAuthorized {
		t.Fatalf("expected fail-open authorization, got decision=%v err=%v", decision, err)
	}

	// And invalid tokens are still rejected by the token check itself.
	if _, _, err := gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	sink := NewChannelSink(16)

	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16

	gate, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	raw, err := gate.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ctx := WithClientIP(context.Background(), "10.0.0.1")
	ctx = WithUserAgent(ctx, "gate-test/1.0")
	_, _, _ = gate.Authenticate(ctx, "POST", "/auth/login", "")
	_, _, _ = gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer garbage")
	_, _, _ = gate.Authenticate(ctx, "GET", "/users/42/tasks", "Bearer "+raw)

	// Close drains the dispatcher into the sink.
	gate.Close()

	events := make([]AuditEvent, 0, 3)
	timeout := time.After(2 * time.Second)
	for len(events) < 3 {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-timeout:
			t.Fatalf("timed out waiting for audit events, got %d", len(events))
		}
	}

	public, rejected, authorized := events[0], events[1], events[2]

	if public.Decision != "public" || public.Success != true {
		t.Fatalf("unexpected public event: %+v", public)
	}
	if rejected.Decision != "rejected" || rejected.Success || rejected.Error != "malformed" {
		t.Fatalf("unexpected rejected event: %+v", rejected)
	}
	if authorized.Decision != "authorized" || authorized.SubjectID != "user-123" {
		t.Fatalf("unexpected authorized event: %+v", authorized)
	}
	if authorized.IP != "10.0.0.1" {
		t.Fatalf("expected client IP on event, got %q", authorized.IP)
	}
	if authorized.TokenHash == raw || authorized.TokenHash == "" {
		t.Fatalf("expected hashed token reference, got %q", authorized.TokenHash)
	}
	if authorized.Path != "/users/42/tasks" {
		t.Fatalf("expected normalized path, got %q", authorized.Path)
	}
	if authorized.Metadata["user_agent"] != "gate-test/1.0" {
		t.Fatalf("expected user agent metadata, got %v", authorized.Metadata)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithSecret(testSecret)

	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}

func TestBuilderRejectsShortSecret(t *testing.T) {
	if _, err := New().WithSecret([]byte("short")).Build(); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestBuilderThrottleRequiresRedis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Throttle.EnableIPThrottle = true

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error for throttle without redis")
	}
}

func TestDecisionString(t *testing.T) {
	cases := map[Decision]string{
		DecisionRejected:   "rejected",
		DecisionPublic:     "public",
		DecisionAuthorized: "authorized",
		Decision(42):       "rejected",
	}
	for decision, want := range cases {
		if got := decision.String(); got != want {
			t.Fatalf("Decision(%d).String() = %q, want %q", decision, got, want)
		}
	}
}

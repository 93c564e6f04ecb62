//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"

	authgate "github.com/nuralyx/authgate"
	"github.com/nuralyx/authgate/isolation"
)

// End-to-end isolation: two authenticated principals share a gate and a
// store; neither can observe the other's resources through any exposed
// operation.
func TestCrossUserIsolationEndToEnd(t *testing.T) {
	store, rdb, cleanup := newIntegrationStore(t)
	defer cleanup()

	gate := newIntegrationGate(t, rdb)
	ctx := context.Background()

	tokenAlice, err := gate.Issue("alice")
	if err != nil {
		t.Fatalf("issue alice failed: %v", err)
	}
	tokenBob, err := gate.Issue("bob")
	if err != nil {
		t.Fatalf("issue bob failed: %v", err)
	}

	alice, decision, err := gate.Authenticate(ctx, "GET", "/users/alice/tasks", "Bearer "+tokenAlice)
	if err != nil || decision != authgate.DecisionAuthorized {
		t.Fatalf("alice authentication failed: decision=%v err=%v", decision, err)
	}
	bob, decision, err := gate.Authenticate(ctx, "GET", "/users/bob/tasks", "Bearer "+tokenBob)
	if err != nil || decision != authgate.DecisionAuthorized {
		t.Fatalf("bob authentication failed: decision=%v err=%v", decision, err)
	}

	secret := &isolation.Resource{Title: "alice's secret"}
	if err := store.Create(ctx, alice, secret); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Owner sees the resource.
	aliceList, err := store.ListOwned(ctx, alice)
	if err != nil {
		t.Fatalf("alice list failed: %v", err)
	}
	if len(aliceList) != 1 || aliceList[0].ID != secret.ID {
		t.Fatalf("expected alice to see her resource, got %+v", aliceList)
	}

	// The other principal does not, through any path.
	bobList, err := store.ListOwned(ctx, bob)
	if err != nil {
		t.Fatalf("bob list failed: %v", err)
	}
	if len(bobList) != 0 {
		t.Fatalf("bob must not see alice's resources, got %+v", bobList)
	}

	_, foreignErr := store.GetOwned(ctx, bob, secret.ID)
	_, missingErr := store.GetOwned(ctx, bob, "does-not-exist")
	if !errors.Is(foreignErr, authgate.ErrResourceNotFound) || !errors.Is(missingErr, authgate.ErrResourceNotFound) {
		t.Fatalf("expected not-found for both lookups, got %v and %v", foreignErr, missingErr)
	}
	if foreignErr.Error() != missingErr.Error() {
		t.Fatalf("foreign and missing lookups must be indistinguishable: %q vs %q",
			foreignErr.Error(), missingErr.Error())
	}

	if err := store.DeleteOwned(ctx, bob, secret.ID); !errors.Is(err, authgate.ErrResourceNotFound) {
		t.Fatalf("expected delete rejection, got %v", err)
	}
	if err := store.UpdateOwned(ctx, bob, &isolation.Resource{ID: secret.ID, Title: "hijack"}); !errors.Is(err, authgate.ErrResourceNotFound) {
		t.Fatalf("expected update rejection, got %v", err)
	}

	// The resource survives untouched.
	got, err := store.GetOwned(ctx, alice, secret.ID)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if got.Title != "alice's secret" {
		t.Fatalf("resource mutated by foreign principal: %+v", got)
	}
}

// Ownership guard in front of the store: a valid token for one subject
// cannot be used against another subject's path.
func TestPathOwnerGuardEndToEnd(t *testing.T) {
	_, rdb, cleanup := newIntegrationStore(t)
	defer cleanup()

	gate := newIntegrationGate(t, rdb)
	ctx := context.Background()

	token, err := gate.Issue("alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	alice, _, err := gate.Authenticate(ctx, "GET", "/users/bob/tasks", "Bearer "+token)
	if err != nil {
		t.Fatalf("authentication failed: %v", err)
	}

	// Authentication succeeded; the ownership check is a separate layer.
	if err := isolation.EnforceOwner(alice, "bob"); !errors.Is(err, authgate.ErrPathOwnerMismatch) {
		t.Fatalf("expected path owner mismatch, got %v", err)
	}
	if err := isolation.EnforceOwner(alice, "alice"); err != nil {
		t.Fatalf("expected own path to pass, got %v", err)
	}
}

// Repeated failures from one address trip the throttle while valid
// clients on other addresses keep working.
func TestThrottleEndToEnd(t *testing.T) {
	_, rdb, cleanup := newIntegrationStore(t)
	defer cleanup()

	gate := newIntegrationGate(t, rdb)

	attacker := authgate.WithClientIP(context.Background(), "203.0.113.7")
	for i := 0; i < 6; i++ {
		_, _, _ = gate.Authenticate(attacker, "GET", "/users/alice/tasks", "Bearer forged")
	}
	if _, _, err := gate.Authenticate(attacker, "GET", "/users/alice/tasks", "Bearer forged"); !errors.Is(err, authgate.ErrAuthRateLimited) {
		t.Fatalf("expected throttle, got %v", err)
	}

	token, err := gate.Issue("alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	client := authgate.WithClientIP(context.Background(), "198.51.100.9")
	if _, decision, err := gate.Authenticate(client, "GET", "/users/alice/tasks", "Bearer "+token); err != nil || decision != authgate.DecisionAuthorized {
		t.Fatalf("clean client must pass, got decision=%v err=%v", decision, err)
	}
}

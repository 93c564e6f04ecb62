//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authgate "github.com/nuralyx/authgate"
	"github.com/nuralyx/authgate/isolation"
)

var integrationSecret = []byte("0123456789abcdef0123456789abcdef")

func newIntegrationStore(t *testing.T) (*isolation.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := isolation.NewStore(rdb, "task")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationGate(t *testing.T, rdb *redis.Client) *authgate.Gate {
	t.Helper()

	cfg := authgate.DefaultConfig()
	cfg.Token.Secret = integrationSecret
	cfg.Throttle.EnableIPThrottle = true
	cfg.Throttle.MaxAuthFailures = 5
	cfg.Metrics.Enabled = true

	gate, err := authgate.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("gate build failed: %v", err)
	}
	t.Cleanup(gate.Close)

	return gate
}

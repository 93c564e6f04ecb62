// Package routes classifies normalized request paths as public or
// protected. Classification is an exact (method, path) allow-list
// lookup: anything not explicitly listed is protected, and no prefix or
// substring matching is ever performed.
package routes

import (
	"errors"
	"fmt"
	"strings"
)

// Class defines a public type used by authgate APIs.
//
// Class instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Class uint8

const (
	// Protected is the zero value so that an unmatched or
	// misconfigured lookup always fails closed.
	Protected Class = iota
	// Public is an exported constant or variable used by the authentication gateway.
	Public
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Class) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// Rule is one exact (method, path) entry in the public allow-list.
type Rule struct {
	Method string
	Path   string
}

// Table defines a public type used by authgate APIs.
//
// Table instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Table struct {
	prefixes []string
	public   map[Rule]struct{}
}

// NewTable builds a classification table from mount prefixes and the
// public allow-list. Rules are stored normalized so that lookup and
// registration agree on canonical form.
func NewTable(prefixes []string, rules []Rule) (*Table, error) {
	t := &Table{
		prefixes: make([]string, 0, len(prefixes)),
		public:   make(map[Rule]struct{}, len(rules)),
	}

	for _, prefix := range prefixes {
		if prefix == "" || prefix[0] != '/' {
			return nil, fmt.Errorf("mount prefix %q must start with '/'", prefix)
		}
		if prefix == "/" {
			return nil, errors.New("mount prefix must not be the root path")
		}
		t.prefixes = append(t.prefixes, strings.TrimSuffix(prefix, "/"))
	}

	for _, rule := range rules {
		method := strings.ToUpper(strings.TrimSpace(rule.Method))
		if method == "" {
			return nil, fmt.Errorf("public rule for %q requires a method", rule.Path)
		}
		if rule.Path == "" || rule.Path[0] != '/' {
			return nil, fmt.Errorf("public rule path %q must start with '/'", rule.Path)
		}

		normalized := Rule{Method: method, Path: t.Normalize(rule.Path)}
		if _, exists := t.public[normalized]; exists {
			return nil, fmt.Errorf("duplicate public rule %s %s", normalized.Method, normalized.Path)
		}
		t.public[normalized] = struct{}{}
	}

	return t, nil
}

// Classify returns the class for a request. The lookup is exact over
// the normalized path; unknown routes are protected.
func (t *Table) Classify(method, path string) Class {
	if t == nil {
		return Protected
	}

	rule := Rule{
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Path:   t.Normalize(path),
	}
	if _, ok := t.public[rule]; ok {
		return Public
	}

	return Protected
}

// Normalize canonicalizes a request path: empty becomes "/", exactly
// one trailing slash is stripped (root stays "/"), and repeated mount
// prefixes are collapsed. Normalization is idempotent.
func (t *Table) Normalize(path string) string {
	if path == "" {
		return "/"
	}

	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	if t == nil {
		return path
	}

	// A proxy or router that re-mounts the API can produce paths like
	// /api/v1/api/v1/tasks. Strip every leading occurrence so that the
	// mounted and unmounted spellings classify identically.
	for {
		stripped := false
		for _, prefix := range t.prefixes {
			if path == prefix {
				return "/"
			}
			if strings.HasPrefix(path, prefix+"/") {
				path = path[len(prefix):]
				stripped = true
				break
			}
		}
		if !stripped {
			return path
		}
	}
}

// DefaultPrefixes returns the mount prefixes stripped by default.
func DefaultPrefixes() []string {
	return []string{"/api/v1"}
}

// DefaultPublicRules returns the standard public allow-list. Note that
// the identity endpoint /auth/me is absent: it requires a verified
// token like any other protected route.
func DefaultPublicRules() []Rule {
	return []Rule{
		{Method: "POST", Path: "/auth/register"},
		{Method: "POST", Path: "/auth/login"},
		{Method: "POST", Path: "/auth/logout"},
		{Method: "GET", Path: "/auth/health"},
		{Method: "GET", Path: "/auth/callback"},
		{Method: "GET", Path: "/"},
		{Method: "GET", Path: "/health"},
		{Method: "GET", Path: "/monitoring/health"},
		{Method: "GET", Path: "/monitoring/metrics"},
	}
}

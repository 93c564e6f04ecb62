// Package isolation enforces per-user resource scoping: the ownership
// guard checks path-claimed owners against the authenticated principal
// before storage is touched, and the store only exposes owner-scoped
// access paths.
package isolation

import (
	authgate "github.com/nuralyx/authgate"
)

// EnforceOwner compares the owner identifier claimed in the request
// path against the authenticated principal. A mismatch is a forbidden
// request, not a missing resource: the caller proved who they are and
// asked for someone else's collection. Runs before any storage call.
func EnforceOwner(principal *authgate.Principal, claimedOwnerID string) error {
	if principal == nil || principal.SubjectID == "" {
		return authgate.ErrUnauthorized
	}
	if claimedOwnerID != principal.SubjectID {
		return authgate.ErrPathOwnerMismatch
	}
	return nil
}

// OwnedBy verifies a fetched resource belongs to the principal. Unlike
// [EnforceOwner] a mismatch here must be indistinguishable from a
// missing resource, so foreign ownership maps to not-found.
func OwnedBy(principal *authgate.Principal, resourceOwnerID string) error {
	if principal == nil || principal.SubjectID == "" {
		return authgate.ErrUnauthorized
	}
	if resourceOwnerID != principal.SubjectID {
		return authgate.ErrResourceNotFound
	}
	return nil
}

package auth

import (
	"context"

	"lockerd/pkg/model"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller as carried through request context.
type Identity struct {
	UserID string
	Role   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// CanAccess is the ownership predicate: a caller may act on a resource it
// owns, and admins may act on anything.
func CanAccess(actor Identity, ownerID string) bool {
	if actor.Role == model.RoleAdmin {
		return true
	}
	return actor.UserID != "" && actor.UserID == ownerID
}

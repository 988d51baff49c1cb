package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is the verified caller produced by the auth middleware. It is
// attached to the request context at the HTTP edge only; services receive it
// as an explicit argument.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

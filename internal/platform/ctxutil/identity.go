package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is the authenticated caller attached by the auth middleware.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(Default(ctx), identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

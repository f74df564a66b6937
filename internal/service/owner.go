package service

import "context"

type ownerKey struct{}

// WithOwner scopes timer operations on ctx to one user. Timers owned by
// someone else behave as if they do not exist. A context without an owner
// sees every timer.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

func ownerFrom(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerKey{}).(string)
	return ownerID
}

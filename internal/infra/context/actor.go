package context

import (
	"context"
)

const contextKeyActor = contextKey("actor")

// Actor identifies the signed-in user a command runs on behalf of.
type Actor struct {
	UserID string
	Role   string
}

// ActorFromContext extracts the acting user from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKeyActor).(Actor)

	return actor, ok
}

// WithActor returns a context carrying the acting user.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

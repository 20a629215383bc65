package shared

import "context"

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the authenticated user on whose behalf a request runs.
// The service does not authenticate; it records the identity handed to it
// by the identity provider.
type Actor struct {
	UserID int64
	Email  string
}

// ContextWithActor stores the acting user in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting user, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

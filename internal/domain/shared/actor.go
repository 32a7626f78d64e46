package shared

import "context"

// Actor identifies who triggered a business event, for the audit trail.
type Actor struct {
	Username string
	Role     string
}

// SystemActor is used by background jobs.
var SystemActor = Actor{Username: "system", Role: "system"}

type actorKey struct{}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or SystemActor.
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok && actor.Username != "" {
		return actor
	}
	return SystemActor
}

package application

import "context"

// SystemActor is recorded when no caller identity is attached to the context.
const SystemActor = "system"

type actorKey struct{}

// WithActor attaches the identity recorded in CreatedBy/UpdatedBy.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return SystemActor
}

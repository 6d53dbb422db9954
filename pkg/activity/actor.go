package activity

import "context"

// Actor identifies who triggered a form operation.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor attaches actor to ctx. The engine API takes no actor arguments, so
// emitted events pick identity up from the context instead.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// orElse fills the empty fields of a from fallback.
func (a Actor) orElse(fallback Actor) Actor {
	if a.ActorID == "" {
		a.ActorID = fallback.ActorID
	}
	if a.UserID == "" {
		a.UserID = fallback.UserID
	}
	if a.TenantID == "" {
		a.TenantID = fallback.TenantID
	}
	return a
}

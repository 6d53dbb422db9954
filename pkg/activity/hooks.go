package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event is one form lifecycle occurrence. Form identity travels in dedicated
// fields; Metadata carries values and anything callers attach.
type Event struct {
	Actor

	Verb       string
	ObjectType string
	ObjectID   string
	FormID     string
	InputID    string
	GlobalKey  string
	SnapshotID string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives form events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks delivers an event to each of its members.
type Hooks []ActivityHook

// Notify normalizes event once and hands it to every hook. Hook errors are
// joined. Events that cannot be addressed (no verb or object) are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.Addressable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addressable reports whether the event names a verb and the object it
// happened to.
func (e Event) Addressable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// NormalizeEvent trims identifiers, copies metadata and stamps OccurredAt
// when it is unset.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID,
		&out.FormID, &out.InputID, &out.GlobalKey, &out.SnapshotID,
		&out.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

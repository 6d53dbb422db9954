package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "forms"

// Config controls activity emission defaults.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter fans out events to hooks, filling the channel and actor fields from
// defaults and the context.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	normalized := compactHooks(hooks)
	return &Emitter{
		hooks:   normalized,
		enabled: cfg.Enabled && len(normalized) > 0,
		channel: channel,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards the event to all hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if actor, ok := ActorFromContext(ctx); ok {
		event.Actor = event.Actor.orElse(actor)
	}
	return e.hooks.Notify(ctx, event)
}

func compactHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	out := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			out = append(out, hook)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

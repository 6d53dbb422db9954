// Package hydrate turns loosely typed payloads, such as parsed YAML or JSON
// form definitions, into typed records.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the payload being decoded in errors and hooks.
type Context struct {
	// Source is the file or location the payload came from.
	Source string
	// FormID is the id of the form being decoded, when known.
	FormID string
}

func (c Context) String() string {
	switch {
	case c.Source == "" && c.FormID == "":
		return "<payload>"
	case c.Source == "":
		return fmt.Sprintf("form %q", c.FormID)
	case c.FormID == "":
		return c.Source
	default:
		return fmt.Sprintf("%s form %q", c.Source, c.FormID)
	}
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded record.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts map payloads into T through a JSON round trip, so the
// json tags and custom unmarshalers of T apply.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	strict    bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects payload keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. The payload is
// never mutated.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx)
	}

	current, err := normalize(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: normalise %s: %w", ctx, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal %s: %w", ctx, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.strict {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}

	return result, nil
}

// normalize deep-copies payload, converting the map[any]any nodes some YAML
// decoders produce into map[string]any.
func normalize(payload map[string]any) (map[string]any, error) {
	out, err := normalizeValue(payload)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func normalizeValue(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			converted, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = converted
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v (%T)", key, key)
			}
			converted, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out[name] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			converted, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}

package formsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formsync/internal/snapshot"
	"github.com/goliatone/go-formsync/pkg/store"
)

// Engine answers every question about form values: what an input shows,
// which options it offers, whether it is enabled and what it depends on.
type Engine struct {
	globals *GlobalSync
	states  *StateResolver
	deps    *DependencyResolver
	options *OptionsResolver
	logger  Logger
}

// New wires an Engine over backend.
func New(backend Backend, opts ...Option) (*Engine, error) {
	if err := backend.validate(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	runner := ruleRunner{evaluator: cfg.resolveEvaluator(), logger: cfg.logger}

	globals := newGlobalSync(backend.Globals, cfg)
	states := newStateResolver(backend, globals, cfg)
	deps := newDependencyResolver(states, runner, cfg)
	return &Engine{
		globals: globals,
		states:  states,
		deps:    deps,
		options: newOptionsResolver(states, deps, runner, cfg),
		logger:  cfg.logger,
	}, nil
}

// Globals exposes the global value synchronizer.
func (e *Engine) Globals() *GlobalSync { return e.globals }

// States exposes the form state resolver.
func (e *Engine) States() *StateResolver { return e.states }

// Dependencies exposes the dependency resolver.
func (e *Engine) Dependencies() *DependencyResolver { return e.deps }

// Options exposes the options resolver.
func (e *Engine) Options() *OptionsResolver { return e.options }

// SaveFormConfig seeds the declared global defaults of config and stores it.
func (e *Engine) SaveFormConfig(ctx context.Context, config FormConfig) (string, error) {
	return e.states.SaveConfig(ctx, config)
}

// GetFormConfig loads the config of id.
func (e *Engine) GetFormConfig(ctx context.Context, id string) (FormConfig, bool, error) {
	return e.states.Config(ctx, id)
}

// SaveFormState propagates global-scoped values and stores state. The form
// must have a config.
func (e *Engine) SaveFormState(ctx context.Context, state FormState) (string, error) {
	return e.states.Save(ctx, state)
}

// GetFormState returns the effective state of id, synthesized from defaults
// when nothing was saved and reconciled with the current globals.
func (e *Engine) GetFormState(ctx context.Context, id string) (FormState, bool, error) {
	return e.states.Resolve(ctx, id)
}

// GetInputValue returns the displayed value of one input. ok is false when
// the form has no config.
func (e *Engine) GetInputValue(ctx context.Context, formID, inputID string) (any, bool, error) {
	state, ok, err := e.states.Resolve(ctx, formID)
	if err != nil || !ok {
		return nil, false, err
	}
	return state.State[inputID], true, nil
}

// GetInputOptions returns the options of an input.
func (e *Engine) GetInputOptions(ctx context.Context, formID, inputID string) ([]InputOption, error) {
	start := time.Now()
	options, err := e.options.Resolve(ctx, formID, inputID)
	e.logger.Log(ctx, LogEvent{Op: "options", FormID: formID, InputID: inputID, Duration: time.Since(start), Err: err})
	return options, err
}

// GetGlobalValue returns the value stored under key.
func (e *Engine) GetGlobalValue(ctx context.Context, key string) (any, bool, error) {
	return e.globals.Read(ctx, key)
}

// IsEnabled reports whether an input is enabled.
func (e *Engine) IsEnabled(ctx context.Context, formID, inputID string) (bool, error) {
	start := time.Now()
	enabled, err := e.deps.IsEnabled(ctx, formID, inputID)
	e.logger.Log(ctx, LogEvent{Op: "enabled", FormID: formID, InputID: inputID, Duration: time.Since(start), Err: err})
	return enabled, err
}

// GetInputDependenciesState returns the current values of the dependencies
// of an input keyed by dependency id.
func (e *Engine) GetInputDependenciesState(ctx context.Context, formID, inputID string) (map[string]any, error) {
	return e.deps.Values(ctx, formID, inputID)
}

// SetInputValue writes value into one input of formID and saves the
// resulting state.
func (e *Engine) SetInputValue(ctx context.Context, formID, inputID string, value any) (FormState, error) {
	return e.PatchFormState(ctx, formID, map[string]any{inputID: value})
}

// PatchFormState overlays patch onto the effective state of formID and saves
// the result. Nested maps are merged; other values replace the stored ones.
// Every key of patch must be a declared input. Only the globals of patched
// inputs are written.
func (e *Engine) PatchFormState(ctx context.Context, formID string, patch map[string]any) (FormState, error) {
	config, err := e.states.requireConfig(ctx, "patch state", formID)
	if err != nil {
		return FormState{}, err
	}
	for inputID := range patch {
		if _, ok := config.Input(inputID); !ok {
			return FormState{}, fmt.Errorf("formsync: patch state %s.%s: %w", formID, inputID, ErrInputNotFound)
		}
	}
	current, err := e.states.resolveWith(ctx, config)
	if err != nil {
		return FormState{}, err
	}
	next := FormState{ID: formID, State: snapshot.Overlay(current.State, patch)}
	changed := FormState{ID: formID, State: make(map[string]any, len(patch))}
	for inputID := range patch {
		changed.State[inputID] = next.State[inputID]
	}
	if _, err := e.states.save(ctx, config, next, changed); err != nil {
		return FormState{}, err
	}
	return next, nil
}

// TraceInput returns the displayed value of an input together with what the
// global, state and default layers held for it.
func (e *Engine) TraceInput(ctx context.Context, formID, inputID string) (any, Trace, error) {
	config, input, err := e.deps.lookup(ctx, "trace", formID, inputID)
	if err != nil {
		return nil, Trace{}, err
	}
	trace := Trace{FormID: formID, InputID: inputID}

	global := Provenance{Layer: LayerGlobal, Key: input.GlobalKey}
	if strings.TrimSpace(input.GlobalKey) != "" {
		record, meta, found, err := e.globals.load(ctx, input.GlobalKey)
		if err != nil {
			return nil, Trace{}, err
		}
		if found {
			global.Found = true
			global.Value = record.Value
			global.SnapshotID = meta.SnapshotID
		}
	}

	stateRef := store.StateRef(config.ID)
	persisted, meta, hasState, err := e.states.states.Load(ctx, stateRef)
	if err != nil {
		return nil, Trace{}, storeError("load state", stateRef, err)
	}
	stored := Provenance{Layer: LayerState, Key: inputID}
	if hasState {
		stored.SnapshotID = meta.SnapshotID
		stored.Value, stored.Found = persisted.Value(inputID)
	}
	fallback := Provenance{Layer: LayerDefault, Key: inputID, Value: input.Value, Found: input.Value != nil}

	base := &fallback
	if hasState {
		base = &stored
	}
	value := base.Value
	if input.GlobalKey != "" && truthy(value) && global.Found {
		value = reconcile(value, global.Value, true)
		global.Applied = true
	} else {
		base.Applied = true
	}

	trace.Layers = []Provenance{global, stored, fallback}
	return value, trace, nil
}

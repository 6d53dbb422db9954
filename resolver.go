package formsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formsync/internal/snapshot"
	"github.com/goliatone/go-formsync/pkg/activity"
	"github.com/goliatone/go-formsync/pkg/store"
)

// StateResolver computes the effective state of a form from its config, its
// persisted state and the current globals, and saves configs and states.
type StateResolver struct {
	configs store.Store[FormConfig]
	states  store.Store[FormState]
	globals *GlobalSync
	logger  Logger
	emitter *activity.Emitter
}

func newStateResolver(backend Backend, globals *GlobalSync, cfg engineConfig) *StateResolver {
	return &StateResolver{
		configs: backend.Configs,
		states:  backend.States,
		globals: globals,
		logger:  cfg.logger,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
	}
}

// Config loads the config of formID.
func (r *StateResolver) Config(ctx context.Context, formID string) (FormConfig, bool, error) {
	if strings.TrimSpace(formID) == "" {
		return FormConfig{}, false, nil
	}
	ref := store.ConfigRef(formID)
	config, _, ok, err := r.configs.Load(ctx, ref)
	if err != nil {
		return FormConfig{}, false, storeError("load config", ref, err)
	}
	return config, ok, nil
}

// requireConfig loads the config of formID, reporting ErrConfigNotFound when
// it is absent.
func (r *StateResolver) requireConfig(ctx context.Context, op, formID string) (FormConfig, error) {
	if strings.TrimSpace(formID) == "" {
		return FormConfig{}, fmt.Errorf("formsync: %s: %w", op, ErrFormIDRequired)
	}
	config, ok, err := r.Config(ctx, formID)
	if err != nil {
		return FormConfig{}, err
	}
	if !ok {
		return FormConfig{}, fmt.Errorf("formsync: %s %q: %w", op, formID, ErrConfigNotFound)
	}
	return config, nil
}

// Resolve returns the effective state of formID. ok is false when the form
// has no config.
func (r *StateResolver) Resolve(ctx context.Context, formID string) (FormState, bool, error) {
	config, ok, err := r.Config(ctx, formID)
	if err != nil || !ok {
		return FormState{}, false, err
	}
	state, err := r.resolveWith(ctx, config)
	if err != nil {
		return FormState{}, false, err
	}
	return state, true, nil
}

func (r *StateResolver) resolveWith(ctx context.Context, config FormConfig) (FormState, error) {
	start := time.Now()
	persisted, ok, err := r.persisted(ctx, config.ID)
	if err != nil {
		return FormState{}, err
	}
	state := persisted
	if !ok {
		state = synthesize(config)
	}
	if state.State == nil {
		state.State = map[string]any{}
	}
	state.ID = config.ID

	for _, inputID := range sortedInputIDs(config.InputsConfig) {
		input := config.InputsConfig[inputID]
		if input.GlobalKey == "" {
			continue
		}
		current := state.State[inputID]
		if !truthy(current) {
			continue
		}
		global, found, err := r.globals.Read(ctx, input.GlobalKey)
		if err != nil {
			return FormState{}, err
		}
		state.State[inputID] = reconcile(current, global, found)
	}
	r.logger.Log(ctx, LogEvent{Op: "state.resolve", FormID: config.ID, Duration: time.Since(start)})
	return state, nil
}

// persisted loads the stored state of formID without reconciling globals.
func (r *StateResolver) persisted(ctx context.Context, formID string) (FormState, bool, error) {
	ref := store.StateRef(formID)
	state, _, ok, err := r.states.Load(ctx, ref)
	if err != nil {
		return FormState{}, false, storeError("load state", ref, err)
	}
	return state, ok, nil
}

// synthesize builds the initial state of a form from its declared defaults.
// The result is never persisted.
func synthesize(config FormConfig) FormState {
	state := FormState{ID: config.ID, State: make(map[string]any, len(config.InputsConfig))}
	for inputID, input := range config.InputsConfig {
		state.State[inputID] = snapshot.Clone(input.Value)
	}
	return state
}

// reconcile picks the displayed value of a truthy global-scoped input: the
// global when one exists, the stored value otherwise.
func reconcile(stored, global any, found bool) any {
	if !found {
		return stored
	}
	return global
}

// Save propagates the global-scoped values of state and then stores it. The
// state is written even when propagation fails part way; the propagation
// error is returned joined with any write error.
func (r *StateResolver) Save(ctx context.Context, state FormState) (string, error) {
	config, err := r.requireConfig(ctx, "save state", state.ID)
	if err != nil {
		return "", err
	}
	if state.State == nil {
		state.State = map[string]any{}
	}
	return r.save(ctx, config, state, state)
}

// save propagates the globals held by changed and stores state.
func (r *StateResolver) save(ctx context.Context, config FormConfig, state, changed FormState) (string, error) {
	keys, propagateErr := r.globals.Propagate(ctx, changed, config)

	ref := store.StateRef(state.ID)
	start := time.Now()
	meta, err := r.states.Save(ctx, ref, state, store.Meta{})
	err = storeError("save state", ref, err)
	r.logger.Log(ctx, LogEvent{Op: "state.save", FormID: state.ID, Duration: time.Since(start), Err: err})
	if err == nil {
		r.emit(ctx, activity.BuildStateSavedEvent(activity.FormEventInput{
			FormID:     state.ID,
			SnapshotID: meta.SnapshotID,
			Inputs:     sortedStateIDs(state.State),
			Metadata:   globalKeysMetadata(keys),
		}))
	}
	if err := errors.Join(propagateErr, err); err != nil {
		return "", err
	}
	return state.ID, nil
}

// SaveConfig seeds the declared global defaults and then stores config.
func (r *StateResolver) SaveConfig(ctx context.Context, config FormConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}
	if err := r.globals.EnsureDefaults(ctx, config); err != nil {
		return "", err
	}

	ref := store.ConfigRef(config.ID)
	start := time.Now()
	meta, err := r.configs.Save(ctx, ref, config, store.Meta{})
	err = storeError("save config", ref, err)
	r.logger.Log(ctx, LogEvent{Op: "config.save", FormID: config.ID, Duration: time.Since(start), Err: err})
	if err != nil {
		return "", err
	}
	r.emit(ctx, activity.BuildConfigSavedEvent(activity.FormEventInput{
		FormID:     config.ID,
		SnapshotID: meta.SnapshotID,
		Inputs:     sortedInputIDs(config.InputsConfig),
	}))
	return config.ID, nil
}

func (r *StateResolver) emit(ctx context.Context, event activity.Event) {
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.logger.Log(ctx, LogEvent{Op: "activity." + event.Verb, FormID: event.ObjectID, Err: err})
	}
}

func globalKeysMetadata(keys []string) map[string]any {
	if len(keys) == 0 {
		return nil
	}
	return map[string]any{"global_keys": keys}
}

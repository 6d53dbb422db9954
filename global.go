package formsync

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formsync/pkg/activity"
	"github.com/goliatone/go-formsync/pkg/store"
)

// GlobalSync keeps the shared cells behind globalKey inputs in the store. It
// holds no state of its own: every call reads or writes the store directly.
type GlobalSync struct {
	store   store.Store[GlobalValue]
	logger  Logger
	emitter *activity.Emitter
}

// NewGlobalSync wraps globals. Only the logging and activity options apply.
func NewGlobalSync(globals store.Store[GlobalValue], opts ...Option) *GlobalSync {
	cfg := applyOptions(opts)
	return newGlobalSync(globals, cfg)
}

func newGlobalSync(globals store.Store[GlobalValue], cfg engineConfig) *GlobalSync {
	return &GlobalSync{
		store:   globals,
		logger:  cfg.logger,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
	}
}

// Read returns the current value stored under key. An empty key or a missing
// record reports ok=false.
func (g *GlobalSync) Read(ctx context.Context, key string) (any, bool, error) {
	record, _, ok, err := g.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return record.Value, true, nil
}

func (g *GlobalSync) load(ctx context.Context, key string) (GlobalValue, store.Meta, bool, error) {
	if strings.TrimSpace(key) == "" {
		return GlobalValue{}, store.Meta{}, false, nil
	}
	ref := store.GlobalRef(key)
	record, meta, ok, err := g.store.Load(ctx, ref)
	if err != nil {
		return GlobalValue{}, store.Meta{}, false, storeError("read global", ref, err)
	}
	return record, meta, ok, nil
}

// Write upserts the value stored under key.
func (g *GlobalSync) Write(ctx context.Context, key string, value any) error {
	_, err := g.write(ctx, key, value)
	return err
}

func (g *GlobalSync) write(ctx context.Context, key string, value any) (store.Meta, error) {
	if strings.TrimSpace(key) == "" {
		return store.Meta{}, ErrGlobalKeyRequired
	}
	ref := store.GlobalRef(key)
	start := time.Now()
	meta, err := g.store.Save(ctx, ref, GlobalValue{ID: key, Value: value}, store.Meta{})
	err = storeError("write global", ref, err)
	g.logger.Log(ctx, LogEvent{Op: "global.write", Key: key, Duration: time.Since(start), Err: err})
	return meta, err
}

// EnsureDefaults seeds the global of every input in config that declares both
// a globalKey and a default value. Existing globals are never overwritten.
// Stores implementing store.Creator seed atomically; other stores fall back
// to a load followed by a save, where two concurrent seeds may both write.
func (g *GlobalSync) EnsureDefaults(ctx context.Context, config FormConfig) error {
	for _, inputID := range sortedInputIDs(config.InputsConfig) {
		input := config.InputsConfig[inputID]
		if input.GlobalKey == "" || input.Value == nil {
			continue
		}
		created, meta, err := g.seed(ctx, input.GlobalKey, input.Value)
		g.logger.Log(ctx, LogEvent{Op: "global.seed", FormID: config.ID, InputID: inputID, Key: input.GlobalKey, Err: err})
		if err != nil {
			return err
		}
		if created {
			g.emit(ctx, activity.BuildGlobalSeededEvent(activity.FormEventInput{
				FormID:     config.ID,
				InputID:    inputID,
				GlobalKey:  input.GlobalKey,
				SnapshotID: meta.SnapshotID,
				NewValue:   input.Value,
			}))
		}
	}
	return nil
}

func (g *GlobalSync) seed(ctx context.Context, key string, value any) (bool, store.Meta, error) {
	ref := store.GlobalRef(key)
	record := GlobalValue{ID: key, Value: value}
	if creator, ok := g.store.(store.Creator[GlobalValue]); ok {
		created, meta, err := creator.Create(ctx, ref, record, store.Meta{})
		if err != nil {
			return false, store.Meta{}, storeError("seed global", ref, err)
		}
		return created, meta, nil
	}

	_, meta, exists, err := g.load(ctx, key)
	if err != nil {
		return false, store.Meta{}, err
	}
	if exists {
		return false, meta, nil
	}
	meta, err = g.store.Save(ctx, ref, record, store.Meta{})
	if err != nil {
		return false, store.Meta{}, storeError("seed global", ref, err)
	}
	return true, meta, nil
}

// Propagate writes the value of every input in state whose config declares a
// globalKey into that global, in sorted input order. It returns the keys
// written so far and stops at the first failure. When two inputs of the same
// form share a key, the later input id wins.
func (g *GlobalSync) Propagate(ctx context.Context, state FormState, config FormConfig) ([]string, error) {
	var written []string
	for _, inputID := range sortedStateIDs(state.State) {
		input, ok := config.Input(inputID)
		if !ok || input.GlobalKey == "" {
			continue
		}
		value := state.State[inputID]
		meta, err := g.write(ctx, input.GlobalKey, value)
		if err != nil {
			return written, err
		}
		written = append(written, input.GlobalKey)
		g.emit(ctx, activity.BuildGlobalUpdatedEvent(activity.FormEventInput{
			FormID:     state.ID,
			InputID:    inputID,
			GlobalKey:  input.GlobalKey,
			SnapshotID: meta.SnapshotID,
			NewValue:   value,
		}))
	}
	return written, nil
}

func (g *GlobalSync) emit(ctx context.Context, event activity.Event) {
	if err := g.emitter.Emit(ctx, event); err != nil {
		g.logger.Log(ctx, LogEvent{Op: "activity." + event.Verb, Key: event.ObjectID, Err: err})
	}
}

func sortedInputIDs(inputs map[string]InputConfig) []string {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedStateIDs(state map[string]any) []string {
	ids := make([]string, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

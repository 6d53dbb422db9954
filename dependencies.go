package formsync

import (
	"context"
	"fmt"
	"strings"
)

// DependencyResolver reads the values an input depends on and decides
// whether the input is enabled.
type DependencyResolver struct {
	states     *StateResolver
	runner     ruleRunner
	transitive bool
}

func newDependencyResolver(states *StateResolver, runner ruleRunner, cfg engineConfig) *DependencyResolver {
	return &DependencyResolver{states: states, runner: runner, transitive: cfg.transitive}
}

type inputRef struct {
	formID  string
	inputID string
}

func (r inputRef) String() string {
	return r.formID + "." + r.inputID
}

// formStates memoizes resolved states for the duration of one call so that
// several dependencies on the same form share a single read.
type formStates struct {
	resolver *StateResolver
	states   map[string]*FormState
}

func newFormStates(resolver *StateResolver) *formStates {
	return &formStates{resolver: resolver, states: map[string]*FormState{}}
}

func (f *formStates) get(ctx context.Context, formID string) (*FormState, error) {
	if state, ok := f.states[formID]; ok {
		return state, nil
	}
	state, ok, err := f.resolver.Resolve(ctx, formID)
	if err != nil {
		return nil, err
	}
	var resolved *FormState
	if ok {
		resolved = &state
	}
	f.states[formID] = resolved
	return resolved, nil
}

func (f *formStates) value(ctx context.Context, formID string, dep Dependency) (any, error) {
	state, err := f.get(ctx, dep.FormID(formID))
	if err != nil || state == nil {
		return nil, err
	}
	return state.State[dep.ID], nil
}

// Values returns the current value of every dependency of inputID keyed by
// dependency id. Dependencies on forms without a config resolve to nil.
func (d *DependencyResolver) Values(ctx context.Context, formID, inputID string) (map[string]any, error) {
	_, input, err := d.lookup(ctx, "dependencies", formID, inputID)
	if err != nil {
		return nil, err
	}
	return d.values(ctx, formID, input, newFormStates(d.states))
}

func (d *DependencyResolver) values(ctx context.Context, formID string, input InputConfig, states *formStates) (map[string]any, error) {
	out := make(map[string]any, len(input.Dependencies))
	for _, dep := range input.Dependencies {
		value, err := states.value(ctx, formID, dep)
		if err != nil {
			return nil, err
		}
		out[dep.ID] = value
	}
	return out, nil
}

// IsEnabled reports whether inputID is enabled. Every dependency carrying a
// triggering-value list must currently hold one of the listed values; the
// first one that does not disables the input. EnabledWhen, when declared, is
// checked last.
func (d *DependencyResolver) IsEnabled(ctx context.Context, formID, inputID string) (bool, error) {
	return d.isEnabled(ctx, inputRef{formID: formID, inputID: inputID}, nil, newFormStates(d.states))
}

func (d *DependencyResolver) isEnabled(ctx context.Context, ref inputRef, path []inputRef, states *formStates) (bool, error) {
	for _, visited := range path {
		if visited == ref {
			return false, fmt.Errorf("formsync: %s: %w", describePath(append(path, ref)), ErrDependencyCycle)
		}
	}
	path = append(path, ref)

	config, input, err := d.lookup(ctx, "enabled", ref.formID, ref.inputID)
	if err != nil {
		return false, err
	}

	for _, dep := range input.Dependencies {
		if !dep.Gated() {
			continue
		}
		value, err := states.value(ctx, ref.formID, dep)
		if err != nil {
			return false, err
		}
		if !containsValue(dep.TriggeringValues, value) {
			return false, nil
		}
	}

	if d.transitive {
		for _, dep := range input.Dependencies {
			owner := dep.FormID(ref.formID)
			declared, err := d.declares(ctx, owner, dep.ID, config)
			if err != nil {
				return false, err
			}
			if !declared {
				continue
			}
			enabled, err := d.isEnabled(ctx, inputRef{formID: owner, inputID: dep.ID}, path, states)
			if err != nil {
				return false, err
			}
			if !enabled {
				return false, nil
			}
		}
	}

	if strings.TrimSpace(input.EnabledWhen) == "" {
		return true, nil
	}
	deps, err := d.values(ctx, ref.formID, input, states)
	if err != nil {
		return false, err
	}
	state, err := states.get(ctx, ref.formID)
	if err != nil {
		return false, err
	}
	rule := RuleContext{FormID: ref.formID, InputID: ref.inputID, Deps: deps}
	if state != nil {
		rule.State = state.State
	}
	return d.runner.runBool(ctx, rule, input.EnabledWhen)
}

// declares reports whether formID has a config declaring inputID. Dependencies
// on undeclared inputs carry no enablement of their own.
func (d *DependencyResolver) declares(ctx context.Context, formID, inputID string, current FormConfig) (bool, error) {
	config := current
	if formID != current.ID {
		loaded, ok, err := d.states.Config(ctx, formID)
		if err != nil || !ok {
			return false, err
		}
		config = loaded
	}
	_, ok := config.Input(inputID)
	return ok, nil
}

func (d *DependencyResolver) lookup(ctx context.Context, op, formID, inputID string) (FormConfig, InputConfig, error) {
	config, err := d.states.requireConfig(ctx, op, formID)
	if err != nil {
		return FormConfig{}, InputConfig{}, err
	}
	input, ok := config.Input(inputID)
	if !ok {
		return FormConfig{}, InputConfig{}, fmt.Errorf("formsync: %s %s.%s: %w", op, formID, inputID, ErrInputNotFound)
	}
	return config, input, nil
}

func describePath(path []inputRef) string {
	parts := make([]string, len(path))
	for i, ref := range path {
		parts[i] = ref.String()
	}
	return strings.Join(parts, " -> ")
}

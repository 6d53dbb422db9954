package formsync

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// OptionsResolver computes the selectable options of an input.
type OptionsResolver struct {
	states    *StateResolver
	deps      *DependencyResolver
	functions *FunctionRegistry
	runner    ruleRunner
}

func newOptionsResolver(states *StateResolver, deps *DependencyResolver, runner ruleRunner, cfg engineConfig) *OptionsResolver {
	return &OptionsResolver{states: states, deps: deps, functions: cfg.functions, runner: runner}
}

// Resolve returns the options of inputID. The in-process Options func wins,
// then a registered OptionsFunction, then OptionsExpr, then static Choices.
// An input with none of them has no options.
func (o *OptionsResolver) Resolve(ctx context.Context, formID, inputID string) ([]InputOption, error) {
	config, input, err := o.deps.lookup(ctx, "options", formID, inputID)
	if err != nil {
		return nil, err
	}

	switch {
	case input.Options != nil:
		state, err := o.states.resolveWith(ctx, config)
		if err != nil {
			return nil, err
		}
		options, err := input.Options(ctx, &state, config)
		if err != nil {
			return nil, fmt.Errorf("formsync: options %s.%s: %w", formID, inputID, err)
		}
		return normalizeOptions(options), nil

	case strings.TrimSpace(input.OptionsFunction) != "":
		state, err := o.states.resolveWith(ctx, config)
		if err != nil {
			return nil, err
		}
		result, err := o.functions.Call(input.OptionsFunction, state.State, formID, inputID)
		if err != nil {
			return nil, fmt.Errorf("formsync: options %s.%s: %w", formID, inputID, err)
		}
		return coerceOptions(result)

	case strings.TrimSpace(input.OptionsExpr) != "":
		state, err := o.states.resolveWith(ctx, config)
		if err != nil {
			return nil, err
		}
		states := newFormStates(o.states)
		states.states[formID] = &state
		deps, err := o.deps.values(ctx, formID, input, states)
		if err != nil {
			return nil, err
		}
		rule := RuleContext{FormID: formID, InputID: inputID, State: state.State, Deps: deps}
		result, err := o.runner.run(ctx, rule, input.OptionsExpr)
		if err != nil {
			return nil, err
		}
		options, err := coerceOptions(result)
		if err != nil {
			return nil, wrapEvaluationError(evaluatorEngineName(o.runner.evaluator), input.OptionsExpr, rule, err)
		}
		return options, nil

	default:
		return normalizeOptions(input.Choices), nil
	}
}

func normalizeOptions(options []InputOption) []InputOption {
	return append([]InputOption{}, options...)
}

// coerceOptions converts a function or expression result into options. Lists
// may hold InputOption values, maps with "value" and optional "label" keys, or
// scalars labelled with their formatted value.
func coerceOptions(result any) ([]InputOption, error) {
	switch typed := result.(type) {
	case nil:
		return []InputOption{}, nil
	case []InputOption:
		return normalizeOptions(typed), nil
	}

	list := reflect.ValueOf(result)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return nil, fmt.Errorf("options result must be a list, got %T", result)
	}
	options := make([]InputOption, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		option, err := coerceOption(list.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		options = append(options, option)
	}
	return options, nil
}

func coerceOption(item any) (InputOption, error) {
	switch typed := item.(type) {
	case InputOption:
		return typed, nil
	case *InputOption:
		if typed == nil {
			return InputOption{}, fmt.Errorf("nil option")
		}
		return *typed, nil
	case map[string]any:
		value, ok := typed["value"]
		if !ok {
			return InputOption{}, fmt.Errorf("option map has no value")
		}
		label := fmt.Sprint(value)
		if raw, ok := typed["label"]; ok && raw != nil {
			label = fmt.Sprint(raw)
		}
		return InputOption{Value: value, Label: label}, nil
	case map[string]string:
		value, ok := typed["value"]
		if !ok {
			return InputOption{}, fmt.Errorf("option map has no value")
		}
		label, ok := typed["label"]
		if !ok {
			label = value
		}
		return InputOption{Value: value, Label: label}, nil
	default:
		return InputOption{Value: item, Label: fmt.Sprint(item)}, nil
	}
}

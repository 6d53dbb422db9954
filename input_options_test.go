package formsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func optionsForm() FormConfig {
	return FormConfig{ID: "order", InputsConfig: map[string]InputConfig{
		"country": {Value: "PT"},
		"static": {Choices: []InputOption{
			{Value: "a", Label: "A"},
			{Value: "b", Label: "B"},
		}},
		"none": {},
		"fromFunc": {
			Options: func(_ context.Context, state *FormState, config FormConfig) ([]InputOption, error) {
				return []InputOption{{Value: state.State["country"], Label: config.ID}}, nil
			},
			OptionsFunction: "ignored",
			Choices:         []InputOption{{Value: "ignored"}},
		},
		"fromRegistry": {
			OptionsFunction: "regions",
			OptionsExpr:     `["ignored"]`,
		},
		"fromExpr": {
			OptionsExpr: `state.country == "PT" ? [{"value": "north", "label": "Norte"}, {"value": "south"}] : []`,
		},
		"scalars": {
			OptionsExpr: `[1, 2]`,
		},
		"notList": {
			OptionsExpr: `"nope"`,
		},
		"failing": {
			Options: func(context.Context, *FormState, FormConfig) ([]InputOption, error) {
				return nil, errors.New("upstream down")
			},
		},
	}}
}

func newOptionsEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithCustomFunction("regions", func(args ...any) (any, error) {
		state, _ := args[0].(map[string]any)
		country, _ := state["country"].(string)
		return []any{
			map[string]any{"value": country + "-1", "label": "First"},
			"plain",
		}, nil
	}))
	engine, _ := newTestEngine(t, opts...)
	mustSaveConfig(t, engine, optionsForm())
	return engine
}

func TestGetInputOptionsPrecedence(t *testing.T) {
	engine := newOptionsEngine(t)
	ctx := context.Background()

	cases := []struct {
		input string
		want  []InputOption
	}{
		{input: "static", want: []InputOption{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
		{input: "none", want: []InputOption{}},
		{input: "fromFunc", want: []InputOption{{Value: "PT", Label: "order"}}},
		{input: "fromRegistry", want: []InputOption{{Value: "PT-1", Label: "First"}, {Value: "plain", Label: "plain"}}},
		{input: "fromExpr", want: []InputOption{{Value: "north", Label: "Norte"}, {Value: "south", Label: "south"}}},
		{input: "scalars", want: []InputOption{{Value: 1, Label: "1"}, {Value: 2, Label: "2"}}},
	}
	for _, tc := range cases {
		got, err := engine.GetInputOptions(ctx, "order", tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.input, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: options mismatch (-want +got):\n%s", tc.input, diff)
		}
	}
}

func TestGetInputOptionsFollowsState(t *testing.T) {
	engine := newOptionsEngine(t)
	ctx := context.Background()
	if _, err := engine.SetInputValue(ctx, "order", "country", "ES"); err != nil {
		t.Fatalf("set country: %v", err)
	}
	got, err := engine.GetInputOptions(ctx, "order", "fromExpr")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no options for ES, got %v", got)
	}
}

func TestGetInputOptionsErrors(t *testing.T) {
	engine := newOptionsEngine(t)
	ctx := context.Background()

	var evalErr *EvaluationError
	if _, err := engine.GetInputOptions(ctx, "order", "notList"); !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError for a non-list result, got %v", err)
	}
	if _, err := engine.GetInputOptions(ctx, "order", "failing"); err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected options func failure, got %v", err)
	}
	if _, err := engine.GetInputOptions(ctx, "order", "missing"); !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestGetInputOptionsWithCEL(t *testing.T) {
	engine, _ := newTestEngine(t, WithEvaluator(NewCELEvaluator()))
	mustSaveConfig(t, engine, FormConfig{ID: "order", InputsConfig: map[string]InputConfig{
		"country": {Value: "PT"},
		"plan":    {Value: "pro"},
		"extras": {
			OptionsExpr:  `deps.plan == "pro" ? [{"value": "support", "label": "Support"}] : []`,
			Dependencies: []Dependency{Simple("plan")},
		},
		"express": {EnabledWhen: `state.country == "PT"`},
	}})

	got, err := engine.GetInputOptions(context.Background(), "order", "extras")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if diff := cmp.Diff([]InputOption{{Value: "support", Label: "Support"}}, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if !mustEnabled(t, engine, "order", "express") {
		t.Fatalf("expected CEL enablement expression to pass")
	}
}

func TestGetInputOptionsWithProgramCache(t *testing.T) {
	cache := &fakeProgramCache{}
	engine := newOptionsEngine(t, WithProgramCache(cache))
	for i := 0; i < 3; i++ {
		if _, err := engine.GetInputOptions(context.Background(), "order", "scalars"); err != nil {
			t.Fatalf("options: %v", err)
		}
	}
	if cache.misses != 1 || cache.hits != 2 {
		t.Fatalf("expected the default evaluator to use the cache, got %d misses and %d hits", cache.misses, cache.hits)
	}
}

func TestCoerceOptions(t *testing.T) {
	cases := []struct {
		name    string
		result  any
		want    []InputOption
		wantErr bool
	}{
		{name: "nil", result: nil, want: []InputOption{}},
		{name: "typed", result: []InputOption{{Value: 1, Label: "one"}}, want: []InputOption{{Value: 1, Label: "one"}}},
		{name: "string slice", result: []string{"a"}, want: []InputOption{{Value: "a", Label: "a"}}},
		{name: "string maps", result: []map[string]string{{"value": "a"}}, want: []InputOption{{Value: "a", Label: "a"}}},
		{name: "map without value", result: []any{map[string]any{"label": "x"}}, wantErr: true},
		{name: "scalar", result: 3, wantErr: true},
	}
	for _, tc := range cases {
		got, err := coerceOptions(tc.result)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

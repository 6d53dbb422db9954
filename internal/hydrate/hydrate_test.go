package hydrate

import (
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type formDoc struct {
	ID     string              `json:"id"`
	Inputs map[string]inputDoc `json:"inputsConfig,omitempty"`
}

type inputDoc struct {
	GlobalKey string `json:"globalKey,omitempty"`
	Value     any    `json:"value,omitempty"`
}

type fixture struct {
	Cases []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string         `json:"name"`
	Source    string         `json:"source"`
	Options   []string       `json:"options"`
	PreHooks  []string       `json:"pre_hooks"`
	PostHooks []string       `json:"post_hooks"`
	Input     map[string]any `json:"input"`
	Expect    formDoc        `json:"expect"`
	ExpectErr string         `json:"expect_err"`
}

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_forms.json")

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[formDoc](buildOptions(tc)...)

			result, err := decoder.Decode(Context{Source: tc.Source}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if diff := cmp.Diff(tc.Expect, result); diff != "" {
				t.Fatalf("decoded form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoderRejectsNilPayload(t *testing.T) {
	_, err := NewDecoder[formDoc]().Decode(Context{FormID: "profile"}, nil)
	if err == nil || !strings.Contains(err.Error(), `form "profile"`) {
		t.Fatalf("expected nil payload error naming the form, got %v", err)
	}
}

func TestDecoderNormalizesNestedYAMLMaps(t *testing.T) {
	payload := map[string]any{
		"id": "profile",
		"inputsConfig": map[any]any{
			"name": map[any]any{"value": "Ada"},
		},
	}

	result, err := NewDecoder[formDoc]().Decode(Context{}, payload)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	want := formDoc{ID: "profile", Inputs: map[string]inputDoc{"name": {Value: "Ada"}}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("decoded form mismatch (-want +got):\n%s", diff)
	}
	if _, ok := payload["inputsConfig"].(map[any]any); !ok {
		t.Fatalf("payload was mutated: %#v", payload["inputsConfig"])
	}
}

func TestDecoderRejectsNonStringKeys(t *testing.T) {
	payload := map[string]any{
		"inputsConfig": map[any]any{1: "one"},
	}
	_, err := NewDecoder[formDoc]().Decode(Context{Source: "forms/bad.yaml"}, payload)
	if err == nil || !strings.Contains(err.Error(), "non-string key") {
		t.Fatalf("expected non-string key error, got %v", err)
	}
}

func TestPreHookErrorsAreWrapped(t *testing.T) {
	sentinel := errors.New("boom")
	decoder := NewDecoder[formDoc](WithPreHook[formDoc](func(Context, map[string]any) (map[string]any, error) {
		return nil, sentinel
	}))
	_, err := decoder.Decode(Context{Source: "forms/a.yaml"}, map[string]any{})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[formDoc] {
	options := []DecoderOption[formDoc]{}

	for _, optName := range tc.Options {
		switch optName {
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[formDoc]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "id_from_source":
			options = append(options, WithPreHook[formDoc](idFromSourcePreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "require_inputs":
			options = append(options, WithPostHook[formDoc](requireInputsPostHook))
		}
	}

	return options
}

func idFromSourcePreHook(ctx Context, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["id"]; ok {
		return payload, nil
	}
	base := path.Base(ctx.Source)
	payload["id"] = strings.TrimSuffix(base, path.Ext(base))
	return payload, nil
}

func requireInputsPostHook(_ Context, doc *formDoc) error {
	if len(doc.Inputs) == 0 {
		return errors.New("form " + doc.ID + " has no inputs")
	}
	return nil
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}

package formsync

import (
	"context"
	"fmt"
	"strings"
)

// FormConfig is the static template for a form: defaults, options and
// dependency rules for each input.
type FormConfig struct {
	ID           string                 `json:"id" yaml:"id"`
	InputsConfig map[string]InputConfig `json:"inputsConfig" yaml:"inputsConfig"`
}

// InputConfig describes a single input of a form.
type InputConfig struct {
	// GlobalKey names the shared value this input mirrors across forms.
	GlobalKey string `json:"globalKey,omitempty" yaml:"globalKey,omitempty"`
	// Value is the declared default.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Options is an in-process resolver. It is never persisted; configs read
	// back from a serializing store lose it.
	Options OptionsFunc `json:"-" yaml:"-"`
	// OptionsFunction names a function in the engine FunctionRegistry.
	OptionsFunction string `json:"optionsFunction,omitempty" yaml:"optionsFunction,omitempty"`
	// OptionsExpr is evaluated against the form state to produce options.
	OptionsExpr string `json:"optionsExpr,omitempty" yaml:"optionsExpr,omitempty"`
	// Choices is a static option list.
	Choices []InputOption `json:"choices,omitempty" yaml:"choices,omitempty"`

	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// EnabledWhen is an optional boolean expression checked after the
	// triggering-value allow-lists pass.
	EnabledWhen string `json:"enabledWhen,omitempty" yaml:"enabledWhen,omitempty"`
}

// FormState is the live snapshot of one form instance.
type FormState struct {
	ID    string         `json:"id" yaml:"id"`
	State map[string]any `json:"state" yaml:"state"`
}

// GlobalValue is a single shared cell keyed by a globalKey.
type GlobalValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// InputOption is one selectable option of an input.
type InputOption struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// OptionsFunc computes the options of an input from the current state of its
// form. state is nil when the form has neither a persisted nor a synthesized
// state.
type OptionsFunc func(ctx context.Context, state *FormState, config FormConfig) ([]InputOption, error)

// Input returns the config for inputID.
func (c FormConfig) Input(inputID string) (InputConfig, bool) {
	if c.InputsConfig == nil {
		return InputConfig{}, false
	}
	input, ok := c.InputsConfig[inputID]
	return input, ok
}

// Value returns the state value for inputID.
func (s FormState) Value(inputID string) (any, bool) {
	if s.State == nil {
		return nil, false
	}
	value, ok := s.State[inputID]
	return value, ok
}

// Validate reports structural problems that would make the config unusable:
// a missing form id, blank input ids or dependencies without an id.
func (c FormConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrFormIDRequired
	}
	for inputID, input := range c.InputsConfig {
		if strings.TrimSpace(inputID) == "" {
			return fmt.Errorf("formsync: form %q: input id must not be empty", c.ID)
		}
		for i, dep := range input.Dependencies {
			if strings.TrimSpace(dep.ID) == "" {
				return fmt.Errorf("formsync: form %q input %q: dependency %d has no id", c.ID, inputID, i)
			}
		}
	}
	return nil
}

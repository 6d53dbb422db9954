package formsync

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DependencyKind tags the Dependency variant.
type DependencyKind int

const (
	// SimpleRef points at another input of the same form.
	SimpleRef DependencyKind = iota
	// ScopedRef may point at another form and may carry an allow-list of
	// triggering values.
	ScopedRef
)

func (k DependencyKind) String() string {
	switch k {
	case SimpleRef:
		return "simple"
	case ScopedRef:
		return "scoped"
	default:
		return "unknown"
	}
}

// Dependency is a declared reference from one input to another input's current
// value. Serialized either as a bare input id or as an object
// {id, parentFormId, triggeringValues}.
type Dependency struct {
	Kind DependencyKind
	ID   string
	// ParentFormID selects the form to read ID from. Empty means the owning form.
	ParentFormID string
	// TriggeringValues gates enablement when non-nil. An empty, non-nil list
	// never matches.
	TriggeringValues []any
}

// Simple builds a same-form dependency on id.
func Simple(id string) Dependency {
	return Dependency{Kind: SimpleRef, ID: id}
}

// Scoped builds a structured dependency.
func Scoped(id, parentFormID string, triggeringValues ...any) Dependency {
	dep := Dependency{Kind: ScopedRef, ID: id, ParentFormID: parentFormID}
	if triggeringValues != nil {
		dep.TriggeringValues = append([]any{}, triggeringValues...)
	}
	return dep
}

// FormID returns the id of the form owning the dependency, falling back to
// current.
func (d Dependency) FormID(current string) string {
	if d.Kind == ScopedRef && d.ParentFormID != "" {
		return d.ParentFormID
	}
	return current
}

// Gated reports whether the dependency carries a triggering-value allow-list.
func (d Dependency) Gated() bool {
	return d.Kind == ScopedRef && d.TriggeringValues != nil
}

type scopedPayload struct {
	ID               string `json:"id" yaml:"id"`
	ParentFormID     string `json:"parentFormId,omitempty" yaml:"parentFormId,omitempty"`
	TriggeringValues []any  `json:"triggeringValues" yaml:"triggeringValues"`
}

// scopedYAML keeps an empty allow-list apart from an absent one when encoding.
type scopedYAML struct {
	ID               string `yaml:"id"`
	ParentFormID     string `yaml:"parentFormId,omitempty"`
	TriggeringValues *[]any `yaml:"triggeringValues,omitempty"`
}

func (d Dependency) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case SimpleRef:
		return json.Marshal(d.ID)
	case ScopedRef:
		return json.Marshal(scopedPayload{ID: d.ID, ParentFormID: d.ParentFormID, TriggeringValues: d.TriggeringValues})
	default:
		return nil, fmt.Errorf("formsync: unknown dependency kind %d", d.Kind)
	}
}

func (d *Dependency) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		return d.setSimple(id)
	}
	var payload scopedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("formsync: dependency must be a string or an object: %w", err)
	}
	return d.setScoped(payload)
}

func (d Dependency) MarshalYAML() (any, error) {
	switch d.Kind {
	case SimpleRef:
		return d.ID, nil
	case ScopedRef:
		out := scopedYAML{ID: d.ID, ParentFormID: d.ParentFormID}
		if d.TriggeringValues != nil {
			values := d.TriggeringValues
			out.TriggeringValues = &values
		}
		return out, nil
	default:
		return nil, fmt.Errorf("formsync: unknown dependency kind %d", d.Kind)
	}
}

func (d *Dependency) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var id string
		if err := node.Decode(&id); err != nil {
			return err
		}
		return d.setSimple(id)
	case yaml.MappingNode:
		var payload scopedPayload
		if err := node.Decode(&payload); err != nil {
			return err
		}
		return d.setScoped(payload)
	default:
		return fmt.Errorf("formsync: dependency must be a string or a mapping (line %d)", node.Line)
	}
}

func (d *Dependency) setSimple(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("formsync: dependency id must not be empty")
	}
	*d = Simple(id)
	return nil
}

func (d *Dependency) setScoped(payload scopedPayload) error {
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		return fmt.Errorf("formsync: dependency id must not be empty")
	}
	*d = Dependency{
		Kind:             ScopedRef,
		ID:               id,
		ParentFormID:     strings.TrimSpace(payload.ParentFormID),
		TriggeringValues: payload.TriggeringValues,
	}
	return nil
}

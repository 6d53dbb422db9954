package formsync

import (
	"encoding/json"
)

// Layer names a source that can contribute the displayed value of an input.
type Layer string

const (
	LayerGlobal  Layer = "global"
	LayerState   Layer = "state"
	LayerDefault Layer = "default"
)

// Trace captures how the displayed value of one input was produced. Layers
// are ordered from highest to lowest precedence.
type Trace struct {
	FormID  string       `json:"form_id"`
	InputID string       `json:"input_id"`
	Layers  []Provenance `json:"layers"`
}

// Provenance details what a single layer held for the traced input.
type Provenance struct {
	Layer      Layer  `json:"layer"`
	Key        string `json:"key,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
	Applied    bool   `json:"applied"`
}

// Applied returns the layer that produced the displayed value.
func (t Trace) Applied() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Applied {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

package activity

import "strings"

const (
	VerbConfigSaved   = "form.config.saved"
	VerbStateSaved    = "form.state.saved"
	VerbGlobalSeeded  = "form.global.seeded"
	VerbGlobalUpdated = "form.global.updated"

	ObjectTypeForm   = "form"
	ObjectTypeGlobal = "form.global"
)

// FormEventInput describes the fields shared by form lifecycle events.
type FormEventInput struct {
	FormID     string
	GlobalKey  string
	InputID    string
	SnapshotID string
	OldValue   any
	NewValue   any
	Inputs     []string
	Metadata   map[string]any
}

// BuildConfigSavedEvent reports a saved form config.
func BuildConfigSavedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbConfigSaved, ObjectTypeForm, input.FormID, input)
}

// BuildStateSavedEvent reports a saved form state.
func BuildStateSavedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbStateSaved, ObjectTypeForm, input.FormID, input)
}

// BuildGlobalSeededEvent reports a global value created from a config default.
func BuildGlobalSeededEvent(input FormEventInput) Event {
	return buildFormEvent(VerbGlobalSeeded, ObjectTypeGlobal, input.GlobalKey, input)
}

// BuildGlobalUpdatedEvent reports a global value written by a state save.
func BuildGlobalUpdatedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbGlobalUpdated, ObjectTypeGlobal, input.GlobalKey, input)
}

func buildFormEvent(verb, objectType, objectID string, input FormEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if len(input.Inputs) > 0 {
		set("inputs", append([]string{}, input.Inputs...))
	}

	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		FormID:     input.FormID,
		InputID:    input.InputID,
		GlobalKey:  input.GlobalKey,
		SnapshotID: input.SnapshotID,
		Metadata:   metadata,
	}
}

package activity

import "testing"

func TestBuildStateSavedEventMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	event := BuildStateSavedEvent(FormEventInput{
		FormID:     "checkout",
		SnapshotID: "snap-1",
		Inputs:     []string{"currency", "country"},
		Metadata:   meta,
	})

	if event.Verb != VerbStateSaved || event.ObjectType != ObjectTypeForm || event.ObjectID != "checkout" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.FormID != "checkout" || event.SnapshotID != "snap-1" {
		t.Fatalf("unexpected form fields: %+v", event)
	}
	inputs, ok := event.Metadata["inputs"].([]string)
	if !ok || len(inputs) != 2 {
		t.Fatalf("expected inputs metadata, got %v", event.Metadata["inputs"])
	}
	if _, leaked := meta["inputs"]; leaked {
		t.Fatalf("expected input metadata untouched")
	}
}

func TestBuildGlobalEventsUseKeyAsObjectID(t *testing.T) {
	event := BuildGlobalUpdatedEvent(FormEventInput{GlobalKey: "currency", FormID: "checkout", OldValue: "EUR", NewValue: "USD"})
	if event.ObjectType != ObjectTypeGlobal || event.ObjectID != "currency" || event.FormID != "checkout" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.Metadata["old_value"] != "EUR" || event.Metadata["new_value"] != "USD" {
		t.Fatalf("expected old/new values, got %+v", event.Metadata)
	}

	seeded := BuildGlobalSeededEvent(FormEventInput{})
	if seeded.Verb != VerbGlobalSeeded || seeded.ObjectID != ObjectTypeGlobal {
		t.Fatalf("expected fallback object id, got %+v", seeded)
	}
}

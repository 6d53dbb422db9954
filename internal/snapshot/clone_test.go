package snapshot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type record struct {
	ID    string
	State map[string]any
}

func TestCloneDetachesNestedMaps(t *testing.T) {
	original := record{
		ID: "f1",
		State: map[string]any{
			"tags":    []any{"a", "b"},
			"address": map[string]any{"city": "Lisbon"},
		},
	}

	cloned := Clone(original)
	if diff := cmp.Diff(original, cloned); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	cloned.State["tags"].([]any)[0] = "changed"
	cloned.State["address"].(map[string]any)["city"] = "Porto"
	if original.State["tags"].([]any)[0] != "a" {
		t.Fatalf("expected original slice untouched, got %v", original.State["tags"])
	}
	if original.State["address"].(map[string]any)["city"] != "Lisbon" {
		t.Fatalf("expected original map untouched, got %v", original.State["address"])
	}
}

func TestCloneNilInterface(t *testing.T) {
	var value any
	if got := Clone(value); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestOverlayReplacesScalarsAndMergesMaps(t *testing.T) {
	base := map[string]any{
		"name":    "ada",
		"address": map[string]any{"city": "Lisbon", "zip": "1000"},
		"keep":    1,
	}
	patch := map[string]any{
		"name":    "grace",
		"address": map[string]any{"city": "Porto"},
		"cleared": nil,
	}

	got := Overlay(base, patch)
	want := map[string]any{
		"name":    "grace",
		"address": map[string]any{"city": "Porto", "zip": "1000"},
		"keep":    1,
		"cleared": nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("overlay mismatch (-want +got):\n%s", diff)
	}
	if base["name"] != "ada" {
		t.Fatalf("expected base untouched, got %v", base["name"])
	}
}

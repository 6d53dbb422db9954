package formsync

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	var nilPtr *int
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero int", 0, false},
		{"zero float", 0.0, false},
		{"nan", math.NaN(), false},
		{"negative", -1, true},
		{"empty string", "", false},
		{"space", " ", true},
		{"string", "x", true},
		{"empty slice", []any{}, true},
		{"empty map", map[string]any{}, true},
		{"nil pointer", nilPtr, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truthy(tc.value); got != tc.want {
				t.Fatalf("truthy(%#v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestContainsValueNormalizesNumbers(t *testing.T) {
	list := []any{1, "two", map[string]any{"k": "v"}, nil}
	if !containsValue(list, float64(1)) {
		t.Fatalf("expected float64(1) to match int 1")
	}
	if !containsValue(list, "two") {
		t.Fatalf("expected string match")
	}
	if !containsValue(list, map[string]any{"k": "v"}) {
		t.Fatalf("expected deep map match")
	}
	if !containsValue(list, nil) {
		t.Fatalf("expected nil match")
	}
	if containsValue(list, "1") {
		t.Fatalf("string \"1\" must not match number 1")
	}
	if containsValue([]any{}, "x") {
		t.Fatalf("empty list never matches")
	}
}

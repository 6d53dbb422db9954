package formsync

import (
	"math"
	"reflect"
)

// truthy follows the loose truthiness used by form front-ends: nil, false,
// numeric zero, NaN and the empty string are falsy; everything else,
// including empty lists and maps, is truthy.
func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	if number, ok := toFloat(value); ok {
		return number != 0 && !math.IsNaN(number)
	}
	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return false
	}
	return true
}

// containsValue reports whether list holds value. Numbers compare by value so
// a stored float64(1) matches a declared int 1.
func containsValue(list []any, value any) bool {
	for _, candidate := range list {
		if valuesEqual(candidate, value) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

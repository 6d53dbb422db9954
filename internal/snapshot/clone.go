// Package snapshot deep-copies and overlays the map-shaped records exchanged
// between the engine and its stores, so callers never share mutable state with
// a store.
package snapshot

import "reflect"

// Clone returns a deep copy of value. Unexported struct fields and funcs are
// carried over as-is.
func Clone[T any](value T) T {
	var zero T
	cloned := cloneValue(reflect.ValueOf(&value).Elem())
	if !cloned.IsValid() {
		return zero
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		return zero
	}
	return out
}

// Overlay returns a copy of base with every key of patch written over it.
// Nested maps are merged recursively; any other value in patch replaces the
// base value wholesale, including nil.
func Overlay(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for key, value := range base {
		out[key] = Clone(value)
	}
	for key, value := range patch {
		nested, isMap := value.(map[string]any)
		existing, hasMap := out[key].(map[string]any)
		if isMap && hasMap {
			out[key] = Overlay(existing, nested)
			continue
		}
		out[key] = Clone(value)
	}
	return out
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

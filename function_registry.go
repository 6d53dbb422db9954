package formsync

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable exposed to expressions and to inputs that declare an
// OptionsFunction. Option functions receive (state map[string]any, formID,
// inputID) and return either []InputOption or a list the engine can coerce.
type Function func(args ...any) (any, error)

// FunctionRegistry stores functions keyed by case-insensitive name. Names
// keep the casing they were registered with.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]registeredFunction)}
}

// Register stores fn under name, rejecting duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("formsync: function %q is nil", name)
	}
	key := normalizeFunctionName(name)
	if key == "" {
		return fmt.Errorf("formsync: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("formsync: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: strings.TrimSpace(name), fn: fn}
	return nil
}

// RegisterOptions adapts an OptionsFunc-like callback that only needs the
// state map.
func (r *FunctionRegistry) RegisterOptions(name string, fn func(state map[string]any) []InputOption) error {
	if fn == nil {
		return fmt.Errorf("formsync: function %q is nil", name)
	}
	return r.Register(name, func(args ...any) (any, error) {
		var state map[string]any
		if len(args) > 0 {
			state, _ = args[0].(map[string]any)
		}
		return fn(state), nil
	})
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[normalizeFunctionName(name)]
	return ok
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]registeredFunction, len(r.functions))}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("formsync: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[normalizeFunctionName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("formsync: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

func normalizeFunctionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

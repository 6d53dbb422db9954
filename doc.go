// Package formsync keeps the values of independently rendered forms in sync.
//
// Inputs that declare a globalKey mirror a single shared value: saving a form
// state writes those inputs into their globals, and resolving another form
// that shares the key shows the global instead of its own stored value. The
// reconciliation happens at read time and only for inputs whose stored value
// is truthy.
//
// Inputs may also depend on other inputs, in the same form or in a parent
// form, and are disabled while a dependency holds a value outside its
// triggering list.
//
// All state lives in a store.Store; the Engine keeps no cache of records and
// is safe for concurrent use.
package formsync

// Package store defines the persistence contract used by the form engine and
// ships two implementations.
//
// Responsibilities:
//   - Store[T] only loads/saves a single record for a single Ref.
//   - Records live in one of three namespaces (config, state, global), each
//     keyed by a string id. There are no cross-namespace transactions.
//   - Creator[T] is an optional capability for atomic put-if-absent. The engine
//     uses it to seed shared values without a check-then-write race.
//
// Deterministic keys:
//
//	Ref.Identifier() returns `<namespace>/<id>`. MemoryStore uses it as its map
//	key and FileStore maps it onto `<root>/<namespace>/<id>.json`.
package store

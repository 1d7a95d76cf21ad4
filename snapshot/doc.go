// Package snapshot contains concrete implementations of the core.SnapshotStore.
//
// The canonical SnapshotStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementation packages
// like this one (in-memory, files, embedded key/value stores, object stores)
// provide persistence backends that can be swapped without touching calling
// code.
//
// All implementations share one JSON encoding (see Encode / Decode), so a
// snapshot written by one backend can be read back by another. Callers should
// depend on the core interface rather than concrete types so they can
// substitute alternative persistence layers in tests or production.
package snapshot

// Package versions keeps note history within the visible-version window of
// a shop's plan.
//
// Every version is stored forever. Under a limited plan only the rows with
// FreeVisible set count toward the window; when the window is full an
// autosave hides the oldest visible autosave instead of deleting it, so an
// upgrade brings the whole history back. Manual saves are never hidden to
// make room: when the window holds only manual saves, autosaves are skipped
// with an inline alert and further manual saves fail with LIMIT_VERSIONS.
//
// Ledger exposes the visibility primitives over a store.VersionStore.
// Service applies the save policy on saves, reverts and deletes, each in a
// single transaction.
package versions

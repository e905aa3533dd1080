// Package api exposes the session store over a small JSON HTTP surface.
//
// Invariants:
// - Save requests are shape-validated before they ever reach the store.
// - A missing session identifier is filled with a generated, time-sortable ULID.
// - "Not found" store outcomes become 404 responses here and nowhere else.
// - Storage failures map to generic 500 responses; the cause is logged, not echoed.
package api

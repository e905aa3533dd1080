// Package store persists chat sessions keyed by a unique session identifier.
//
// Invariants:
// - A session identifier maps to at most one stored record (saves are upserts).
// - CreatedAt is set on first save and never changes; UpdatedAt moves on every save.
// - Listing returns sessions ordered by activity timestamp, most recent first.
//
// Usage:
//
//	st := store.NewMemoryStore(logger)
//	_ = st.SaveSession(ctx, &store.Session{SessionID: "abc", Messages: msgs})
//	s, _ := st.GetSession(ctx, "abc")
//	_ = s
package store

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every Store implementation must
// share. Called from memory_test.go and sqlite_test.go.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("save then get round-trips the session", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		saved := &Session{
			SessionID: "round-trip",
			Messages: []Message{
				{Role: "user", Content: "Hello", Timestamp: time.Now().UTC()},
				{Role: "model", Content: "Hi there", Timestamp: time.Now().UTC()},
			},
			Metadata: map[string]interface{}{"client": "web"},
		}
		require.NoError(t, st.SaveSession(ctx, saved))

		got, err := st.GetSession(ctx, "round-trip")
		require.NoError(t, err)
		assert.Equal(t, "round-trip", got.SessionID)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "user", got.Messages[0].Role)
		assert.Equal(t, "Hello", got.Messages[0].Content)
		assert.Equal(t, "model", got.Messages[1].Role)
		assert.Equal(t, "Hi there", got.Messages[1].Content)
		assert.Equal(t, map[string]interface{}{"client": "web"}, got.Metadata)
		assert.False(t, got.CreatedAt.IsZero())
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("saving twice upserts a single record", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		first := &Session{
			SessionID: "upsert",
			Messages:  []Message{{Role: "user", Content: "first"}},
		}
		require.NoError(t, st.SaveSession(ctx, first))

		created, err := st.GetSession(ctx, "upsert")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		second := &Session{
			SessionID: "upsert",
			Messages: []Message{
				{Role: "user", Content: "first"},
				{Role: "model", Content: "second"},
			},
		}
		require.NoError(t, st.SaveSession(ctx, second))

		count, err := st.GetSessionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := st.GetSession(ctx, "upsert")
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "second", got.Messages[1].Content)
		assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "createdAt must not change on update")
		assert.True(t, got.UpdatedAt.After(created.UpdatedAt), "updatedAt must move on update")
	})

	t.Run("get unknown session returns ErrNotFound", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		_, err := st.GetSession(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list orders sessions by timestamp descending", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, st.SaveSession(ctx, &Session{
			SessionID: "a",
			Messages:  []Message{{Role: "user", Content: "old"}},
			Timestamp: older,
		}))
		require.NoError(t, st.SaveSession(ctx, &Session{
			SessionID: "b",
			Messages:  []Message{{Role: "user", Content: "new"}},
			Timestamp: newer,
		}))

		sessions, err := st.GetAllSessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "b", sessions[0].SessionID)
		assert.Equal(t, "a", sessions[1].SessionID)
	})

	t.Run("list breaks timestamp ties by insertion order", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		ts := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		for _, id := range []string{"one", "two", "three"} {
			require.NoError(t, st.SaveSession(ctx, &Session{
				SessionID: id,
				Messages:  []Message{{Role: "user", Content: id}},
				Timestamp: ts,
			}))
		}

		sessions, err := st.GetAllSessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		assert.Equal(t, "one", sessions[0].SessionID)
		assert.Equal(t, "two", sessions[1].SessionID)
		assert.Equal(t, "three", sessions[2].SessionID)
	})

	t.Run("list on empty store returns empty slice", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		sessions, err := st.GetAllSessions(ctx)
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})

	t.Run("delete reports whether a record was removed", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		require.NoError(t, st.SaveSession(ctx, &Session{
			SessionID: "doomed",
			Messages:  []Message{{Role: "user", Content: "bye"}},
		}))

		deleted, err := st.DeleteSession(ctx, "doomed")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = st.GetSession(ctx, "doomed")
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err = st.DeleteSession(ctx, "doomed")
		require.NoError(t, err)
		assert.False(t, deleted, "deleting an unknown session is not an error")
	})

	t.Run("count tracks saves and deletes", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		ids := []string{"c1", "c2", "c3"}
		for _, id := range ids {
			require.NoError(t, st.SaveSession(ctx, &Session{
				SessionID: id,
				Messages:  []Message{{Role: "user", Content: id}},
			}))
		}

		count, err := st.GetSessionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		_, err = st.DeleteSession(ctx, "c2")
		require.NoError(t, err)

		count, err = st.GetSessionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("save without session id fails", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		err := st.SaveSession(ctx, &Session{Messages: []Message{{Role: "user", Content: "x"}}})
		assert.Error(t, err)
	})
}

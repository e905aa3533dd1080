package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T) Store {
	t.Helper()
	return NewMemoryStore(zerolog.Nop())
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, newTestMemoryStore)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(zerolog.Nop())

	saved := &Session{
		SessionID: "aliasing",
		Messages:  []Message{{Role: "user", Content: "original"}},
		Metadata:  map[string]interface{}{"k": "v"},
	}
	require.NoError(t, st.SaveSession(ctx, saved))

	// Mutating the caller's value must not change stored state.
	saved.Messages[0].Content = "mutated"
	saved.Metadata["k"] = "mutated"

	got, err := st.GetSession(ctx, "aliasing")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Messages[0].Content)
	assert.Equal(t, "v", got.Metadata["k"])

	// Mutating a fetched value must not change stored state either.
	got.Messages[0].Content = "mutated again"

	again, err := st.GetSession(ctx, "aliasing")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("concurrent-%d", n%10)
			_ = st.SaveSession(ctx, &Session{
				SessionID: id,
				Messages:  []Message{{Role: "user", Content: fmt.Sprintf("msg %d", n)}},
			})
		}(i)
	}
	wg.Wait()

	// 10 distinct identifiers, each saved 5 times: exactly 10 records.
	count, err := st.GetSessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

//go:build unit

package docstore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"spotwise/internal/infra"
	"spotwise/internal/infra/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T) *docstore.Memory {
	t.Helper()
	return docstore.NewMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMemoryQuery(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"email": "a@b.c", "plan": "free"}, false))
	require.NoError(t, store.Set(ctx, "users", "u2", map[string]any{"email": "d@e.f", "plan": "paid"}, false))

	t.Run("filters by condition", func(t *testing.T) {
		docs, err := store.Query(ctx, "users", docstore.Where("plan", docstore.OpEqual, "paid"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "u2", docs[0].ID)
	})

	t.Run("no conditions returns all, id-ordered", func(t *testing.T) {
		docs, err := store.Query(ctx, "users")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "u1", docs[0].ID)
		assert.Equal(t, "u2", docs[1].ID)
	})

	t.Run("unknown collection is empty, not an error", func(t *testing.T) {
		docs, err := store.Query(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestMemorySetMerge(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "reservations", "r1", map[string]any{"status": "Pending", "slot": 3}, false))
	require.NoError(t, store.Set(ctx, "reservations", "r1", map[string]any{"status": "Accepted"}, true))

	docs, err := store.Query(ctx, "reservations")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Accepted", docs[0].String("status"))
	assert.Equal(t, 3, docs[0].Int("slot"))

	// Without merge the write replaces the document wholesale.
	require.NoError(t, store.Set(ctx, "reservations", "r1", map[string]any{"status": "Paid"}, false))
	docs, err = store.Query(ctx, "reservations")
	require.NoError(t, err)
	assert.Equal(t, 0, docs[0].Int("slot"))
}

func TestMemoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	err := store.Update(ctx, "users", "ghost", map[string]any{"plan": "paid"})
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}

func TestMemoryWatch(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "resStatus", "s1", map[string]any{"reservationId": "abc", "resStatus": "Pending"}, false))

	var snapshots [][]docstore.Document
	cancel, err := store.Watch(ctx, "resStatus",
		[]docstore.Condition{docstore.Where("reservationId", docstore.OpEqual, "abc")},
		func(docs []docstore.Document, err error) {
			require.NoError(t, err)
			snapshots = append(snapshots, docs)
		})
	require.NoError(t, err)
	defer cancel()

	// Initial snapshot arrives synchronously.
	require.Len(t, snapshots, 1)
	require.Len(t, snapshots[0], 1)

	// A matching change redelivers the full result set.
	require.NoError(t, store.Set(ctx, "resStatus", "s1", map[string]any{"resStatus": "Accepted"}, true))
	require.Len(t, snapshots, 2)
	assert.Equal(t, "Accepted", snapshots[1][0].String("resStatus"))

	// A non-matching document still triggers delivery with the filtered set.
	require.NoError(t, store.Set(ctx, "resStatus", "s2", map[string]any{"reservationId": "other"}, false))
	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[2], 1)

	// Deleting the match delivers an empty set rather than going silent.
	require.NoError(t, store.Delete(ctx, "resStatus", "s1"))
	require.Len(t, snapshots, 4)
	assert.Empty(t, snapshots[3])
}

func TestMemoryWatchCancel(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	calls := 0
	cancel, err := store.Watch(ctx, "users", nil, func([]docstore.Document, error) { calls++ })
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	cancel()
	cancel() // idempotent

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]any{"email": "x"}, false))
	assert.Equal(t, 1, calls)
}

func TestMemoryWatchCallbackMayWrite(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	wrote := false
	cancel, err := store.Watch(ctx, "reservations", nil, func(docs []docstore.Document, err error) {
		require.NoError(t, err)
		if len(docs) == 1 && !wrote {
			wrote = true
			require.NoError(t, store.Set(ctx, "notifications", "n1", map[string]any{"seen": false}, false))
		}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Set(ctx, "reservations", "r1", map[string]any{"status": "Pending"}, false))

	docs, err := store.Query(ctx, "notifications")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryAddGeneratesIDs(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	id1, err := store.Add(ctx, "notifications", map[string]any{"body": "one"})
	require.NoError(t, err)
	id2, err := store.Add(ctx, "notifications", map[string]any{"body": "two"})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}

func TestDocumentIsolation(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	fields := map[string]any{"status": "Pending"}
	require.NoError(t, store.Set(ctx, "reservations", "r1", fields, false))
	fields["status"] = "mutated"

	docs, err := store.Query(ctx, "reservations")
	require.NoError(t, err)
	assert.Equal(t, "Pending", docs[0].String("status"))

	// Mutating a returned document must not reach the store either.
	docs[0].Fields["status"] = "mutated"
	docs, err = store.Query(ctx, "reservations")
	require.NoError(t, err)
	assert.Equal(t, "Pending", docs[0].String("status"))
}

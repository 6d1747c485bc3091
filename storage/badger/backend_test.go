package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_FileNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	// Second close is harmless
	require.NoError(t, backend.Close())

	err = backend.WithTx(context.Background(), func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTx_CanceledContext(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err = backend.WithTx(ctx, func(tx *badger.Txn) error {
		called = true
		return nil
	}, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWithTransaction(t *testing.T) {
	tickets, recipes, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("commits all writes", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := tickets.AddTickets(ctx, &core.Ticket{Id: "tx1", Content: "Pancakes"}); err != nil {
				return err
			}
			_, err := recipes.AddRecipes(ctx, &core.Recipe{TicketId: "tx1", Title: "Pancakes"})
			return err
		})
		require.NoError(t, err)

		got, err := recipes.GetRecipesByTicket(ctx, "tx1")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := tickets.AddTickets(ctx, &core.Ticket{Id: "tx2", Content: "Waffles"}); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		_, err = tickets.GetTicket(ctx, "tx2")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("nested transactions join the outer one", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return tickets.WithTransaction(ctx, func(ctx context.Context) error {
				_, err := tickets.AddTickets(ctx, &core.Ticket{Id: "tx3", Content: "Crepes"})
				return err
			})
		})
		require.NoError(t, err)

		_, err = tickets.GetTicket(ctx, "tx3")
		assert.NoError(t, err)
	})
}

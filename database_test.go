package recipesearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recipesearch/ai"
	"github.com/poiesic/recipesearch/ai/local"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.TicketRepository())
		assert.NotNil(t, db.RecipeRepository())
		assert.NotNil(t, db.Provider())
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with unknown backend", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithBackend("bogus"))))
		assert.ErrorIs(t, err, ai.ErrUnknownBackend)
		assert.Nil(t, db)
	})

	t.Run("openai backend", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithEmbeddingHost("http://localhost:9"))
		db, err := NewDatabase("", WithInMemory(), WithAIConfig(cfg))
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})
}

func TestDatabase_SharesDefaultLocalProvider(t *testing.T) {
	first, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	second, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	defer second.Close()

	assert.Same(t, local.Default(), first.Provider())
	assert.Same(t, first.Provider(), second.Provider())

	// closing one database leaves the shared model usable by the other
	require.NoError(t, first.Close())
	_, err = second.Provider().Embedder().EmbedText(context.Background(), "tomato soup")
	assert.NoError(t, err)

	t.Run("custom model settings get their own provider", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithDimensions(64))))
		require.NoError(t, err)
		defer db.Close()
		assert.NotSame(t, local.Default(), db.Provider())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)

	_, err = db.Searcher()
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func seedTickets(t *testing.T, db *Database) {
	t.Helper()
	ctx := context.Background()

	_, err := db.TicketRepository().AddTickets(ctx,
		&core.Ticket{Id: "soup", CollectionId: "dinners", Content: "some soup I like", Position: 0},
		&core.Ticket{Id: "cake", CollectionId: "desserts", Content: "Chocolate cake with cocoa and sugar", Position: 0},
		&core.Ticket{Id: "salad", CollectionId: "dinners", Content: "Tomato salad with basil", Position: 1},
	)
	require.NoError(t, err)
	_, err = db.RecipeRepository().AddRecipes(ctx, &core.Recipe{
		TicketId:     "soup",
		Title:        "Tomato soup",
		Ingredients:  []string{"tomatoes", "cream"},
		Instructions: []string{"simmer", "blend"},
	})
	require.NoError(t, err)
}

func TestDatabase_Corpus(t *testing.T) {
	db := newTestDatabase(t)
	seedTickets(t, db)
	ctx := context.Background()

	candidates, err := db.Corpus(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	// desserts sorts before dinners
	assert.Equal(t, core.TicketID("cake"), candidates[0].Id)
	assert.Equal(t, core.TicketID("soup"), candidates[1].Id)
	assert.Equal(t, "Tomato soup tomatoes, cream simmer, blend", candidates[1].Text, "recipe text replaces the raw content")
	assert.Equal(t, core.TicketID("salad"), candidates[2].Id)
	for i, c := range candidates {
		assert.Equal(t, i, c.Index)
	}

	dinners, err := db.CollectionCorpus(ctx, "dinners")
	require.NoError(t, err)
	require.Len(t, dinners, 2)
	assert.Equal(t, core.TicketID("soup"), dinners[0].Id)
}

func TestDatabase_NewSearcher(t *testing.T) {
	db := newTestDatabase(t)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	defer searcher.Release()

	shared, err := db.Searcher()
	require.NoError(t, err)
	again, err := db.Searcher()
	require.NoError(t, err)
	assert.Same(t, shared, again)
}

func TestDatabase_NewController(t *testing.T) {
	db := newTestDatabase(t)
	seedTickets(t, db)
	ctx := context.Background()

	controller, err := db.NewController(nil)
	require.NoError(t, err)

	candidates, err := db.Corpus(ctx)
	require.NoError(t, err)

	state := controller.Submit(ctx, "tomato soup", candidates)
	require.Equal(t, filter.StatusResults, state.Status)
	require.NotEmpty(t, state.Matches)
	assert.Equal(t, core.TicketID("soup"), state.Matches[0])
	assert.NotContains(t, state.Matches, core.TicketID("cake"))
}

func TestDatabase_NewImporter(t *testing.T) {
	db := newTestDatabase(t)

	imp, err := db.NewImporter()
	require.NoError(t, err)
	require.NotNil(t, imp)
}

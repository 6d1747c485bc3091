package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/storage"
)

// RecipeRepository implements storage.RecipeRepository for BadgerDB.
type RecipeRepository struct {
	backend *Backend
}

var _ storage.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(backend *Backend) *RecipeRepository {
	return &RecipeRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *RecipeRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *RecipeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecipes adds or replaces recipes. Replacing keeps the original CreatedAt.
func (r *RecipeRepository) AddRecipes(ctx context.Context, recipes ...*core.Recipe) ([]*core.Recipe, error) {
	for _, recipe := range recipes {
		if err := core.ValidateRecipe(recipe); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, recipe := range recipes {
			ok, err := ticketExists(tx, recipe.TicketId)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: ticket %s", storage.ErrNotFound, recipe.TicketId)
			}

			recipe.Id = core.IDFromContent(recipe.ContentKey())
			key := makeRecipeKey(recipe.Id)

			old, exists, err := get(tx, key, storage.UnmarshalRecipe)
			if err != nil {
				return err
			}
			if exists {
				recipe.CreatedAt = old.CreatedAt
				if err := tx.Delete(makeRecipeTicketKey(old.TicketId, old.CreatedAt, old.Id)); err != nil {
					return err
				}
			} else if recipe.CreatedAt.IsZero() {
				recipe.CreatedAt = now
			}
			recipe.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalRecipe(recipe)); err != nil {
				return err
			}
			indexKey := makeRecipeTicketKey(recipe.TicketId, recipe.CreatedAt, recipe.Id)
			if err := tx.Set(indexKey, storage.MarshalID(recipe.Id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return recipes, nil
}

// DeleteRecipes removes recipes by their IDs.
func (r *RecipeRepository) DeleteRecipes(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecipeKey(id)
			recipe, exists, err := get(tx, key, storage.UnmarshalRecipe)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: recipe %d", storage.ErrNotFound, id)
			}
			if err := tx.Delete(makeRecipeTicketKey(recipe.TicketId, recipe.CreatedAt, recipe.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetRecipe retrieves a single recipe by ID.
func (r *RecipeRepository) GetRecipe(ctx context.Context, id core.ID) (*core.Recipe, error) {
	var result *core.Recipe
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		recipe, exists, err := get(tx, makeRecipeKey(id), storage.UnmarshalRecipe)
		if err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
		result = recipe
		return nil
	}, false)
	return result, err
}

// GetRecipesByTicket retrieves a ticket's recipes, oldest first.
func (r *RecipeRepository) GetRecipesByTicket(ctx context.Context, ticketID core.TicketID) ([]*core.Recipe, error) {
	var result []*core.Recipe
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = recipesOfTicket(tx, ticketID)
		return err
	}, false)
	return result, err
}

// GetRecipesForTickets retrieves the recipes of several tickets in one read.
func (r *RecipeRepository) GetRecipesForTickets(ctx context.Context, ticketIDs ...core.TicketID) (map[core.TicketID][]*core.Recipe, error) {
	result := make(map[core.TicketID][]*core.Recipe)
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ticketIDs {
			recipes, err := recipesOfTicket(tx, id)
			if err != nil {
				return err
			}
			if len(recipes) > 0 {
				result[id] = recipes
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recipesOfTicket(tx *badger.Txn, ticketID core.TicketID) ([]*core.Recipe, error) {
	values, err := valuesWithPrefix(tx, makePartialRecipeTicketKey(ticketID))
	if err != nil {
		return nil, err
	}

	var recipes []*core.Recipe
	for _, val := range values {
		id, err := storage.UnmarshalID(val)
		if err != nil {
			return nil, err
		}
		recipe, exists, err := get(tx, makeRecipeKey(id), storage.UnmarshalRecipe)
		if err != nil {
			return nil, err
		}
		if exists {
			recipes = append(recipes, recipe)
		}
	}
	return recipes, nil
}

// deleteRecipesOfTicket removes every recipe attached to a ticket along with
// its index entries.
func deleteRecipesOfTicket(tx *badger.Txn, ticketID core.TicketID) error {
	recipes, err := recipesOfTicket(tx, ticketID)
	if err != nil {
		return err
	}
	for _, key := range keysWithPrefix(tx, makePartialRecipeTicketKey(ticketID)) {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, recipe := range recipes {
		if err := tx.Delete(makeRecipeKey(recipe.Id)); err != nil {
			return err
		}
	}
	return nil
}

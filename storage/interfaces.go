package storage

import (
	"context"

	"github.com/poiesic/recipesearch/core"
)

type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

type TicketRepository interface {
	Repository
	// AddTickets validates and stores tickets.
	// Tickets with an empty ID get a fresh one from core.NewTicketID.
	// Sets CreatedAt if not already set and UpdatedAt to the same instant.
	// Returns ErrDuplicateKey if a ticket with the same ID already exists.
	AddTickets(ctx context.Context, tickets ...*core.Ticket) ([]*core.Ticket, error)

	// UpdateTickets replaces existing tickets and refreshes UpdatedAt.
	// Returns ErrNotFound if any ticket doesn't exist.
	UpdateTickets(ctx context.Context, tickets ...*core.Ticket) ([]*core.Ticket, error)

	// DeleteTickets removes tickets and every recipe attached to them.
	// Returns ErrNotFound if any ticket doesn't exist.
	DeleteTickets(ctx context.Context, ids ...core.TicketID) error

	// GetTicket retrieves a single ticket.
	// Returns ErrNotFound if the ticket doesn't exist.
	GetTicket(ctx context.Context, id core.TicketID) (*core.Ticket, error)

	// GetTickets retrieves tickets by ID in the order given.
	// Returns only the tickets that exist (no error for missing tickets).
	GetTickets(ctx context.Context, ids ...core.TicketID) ([]*core.Ticket, error)

	// ListTickets returns the tickets of a collection ordered by position,
	// then creation time. An empty collectionID lists every collection,
	// ordered by collection ID first.
	ListTickets(ctx context.Context, collectionID string) ([]*core.Ticket, error)
}

type RecipeRepository interface {
	Repository
	// AddRecipes validates and stores recipes.
	// IDs are derived from content (core.IDFromContent of Recipe.ContentKey),
	// so adding the same recipe twice overwrites it.
	// Returns ErrNotFound if a recipe's ticket doesn't exist.
	AddRecipes(ctx context.Context, recipes ...*core.Recipe) ([]*core.Recipe, error)

	// DeleteRecipes removes recipes by their IDs.
	// Returns ErrNotFound if any recipe doesn't exist.
	DeleteRecipes(ctx context.Context, ids ...core.ID) error

	// GetRecipe retrieves a single recipe by ID.
	// Returns ErrNotFound if the recipe doesn't exist.
	GetRecipe(ctx context.Context, id core.ID) (*core.Recipe, error)

	// GetRecipesByTicket returns a ticket's recipes, oldest first.
	GetRecipesByTicket(ctx context.Context, ticketID core.TicketID) ([]*core.Recipe, error)

	// GetRecipesForTickets returns the recipes of several tickets keyed by ticket.
	// Tickets without recipes are absent from the map.
	GetRecipesForTickets(ctx context.Context, ticketIDs ...core.TicketID) (map[core.TicketID][]*core.Recipe, error)
}

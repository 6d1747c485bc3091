package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/storage"
)

// TicketRepository implements storage.TicketRepository for BadgerDB.
type TicketRepository struct {
	backend *Backend
}

var _ storage.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(backend *Backend) *TicketRepository {
	return &TicketRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *TicketRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TicketRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTickets adds one or more tickets to storage.
func (r *TicketRepository) AddTickets(ctx context.Context, tickets ...*core.Ticket) ([]*core.Ticket, error) {
	for _, ticket := range tickets {
		if err := core.ValidateTicket(ticket); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, ticket := range tickets {
			if ticket.Id == "" {
				ticket.Id = core.NewTicketID()
			}
			key := makeTicketKey(ticket.Id)

			_, exists, err := get(tx, key, storage.UnmarshalTicket)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: ticket %s", storage.ErrDuplicateKey, ticket.Id)
			}

			if ticket.CreatedAt.IsZero() {
				ticket.CreatedAt = now
			}
			ticket.UpdatedAt = now

			if err := r.putTicket(tx, ticket); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

// UpdateTickets replaces existing tickets.
func (r *TicketRepository) UpdateTickets(ctx context.Context, tickets ...*core.Ticket) ([]*core.Ticket, error) {
	for _, ticket := range tickets {
		if err := core.ValidateTicket(ticket); err != nil {
			return nil, err
		}
		if ticket.Id == "" {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidTicket, core.ErrEmptyTicketID)
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, ticket := range tickets {
			old, exists, err := get(tx, makeTicketKey(ticket.Id), storage.UnmarshalTicket)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: ticket %s", storage.ErrNotFound, ticket.Id)
			}

			if ticket.CreatedAt.IsZero() {
				ticket.CreatedAt = old.CreatedAt
			}
			ticket.UpdatedAt = now

			// Move the order index entry if any sort component changed
			if err := tx.Delete(makeTicketOrderKey(old)); err != nil {
				return err
			}
			if err := r.putTicket(tx, ticket); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

// DeleteTickets removes tickets and their recipes.
func (r *TicketRepository) DeleteTickets(ctx context.Context, ids ...core.TicketID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeTicketKey(id)
			ticket, exists, err := get(tx, key, storage.UnmarshalTicket)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: ticket %s", storage.ErrNotFound, id)
			}

			if err := deleteRecipesOfTicket(tx, id); err != nil {
				return err
			}
			if err := tx.Delete(makeTicketOrderKey(ticket)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetTicket retrieves a single ticket by ID.
func (r *TicketRepository) GetTicket(ctx context.Context, id core.TicketID) (*core.Ticket, error) {
	var result *core.Ticket
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		ticket, exists, err := get(tx, makeTicketKey(id), storage.UnmarshalTicket)
		if err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
		result = ticket
		return nil
	}, false)
	return result, err
}

// GetTickets retrieves multiple tickets by their IDs.
func (r *TicketRepository) GetTickets(ctx context.Context, ids ...core.TicketID) ([]*core.Ticket, error) {
	var result []*core.Ticket
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			ticket, exists, err := get(tx, makeTicketKey(id), storage.UnmarshalTicket)
			if err != nil {
				return err
			}
			if exists {
				result = append(result, ticket)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListTickets walks the order index of a collection, or of every collection
// when collectionID is empty.
func (r *TicketRepository) ListTickets(ctx context.Context, collectionID string) ([]*core.Ticket, error) {
	var result []*core.Ticket
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		ids, err := valuesWithPrefix(tx, makePartialTicketOrderKey(collectionID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			ticket, exists, err := get(tx, makeTicketKey(core.TicketID(id)), storage.UnmarshalTicket)
			if err != nil {
				return err
			}
			if exists {
				result = append(result, ticket)
			}
		}
		return nil
	}, false)
	return result, err
}

func (r *TicketRepository) putTicket(tx *badger.Txn, ticket *core.Ticket) error {
	if err := tx.Set(makeTicketKey(ticket.Id), storage.MarshalTicket(ticket)); err != nil {
		return err
	}
	return tx.Set(makeTicketOrderKey(ticket), []byte(ticket.Id))
}

// ticketExists reports whether a ticket is stored under id.
func ticketExists(tx *badger.Txn, id core.TicketID) (bool, error) {
	_, err := tx.Get(makeTicketKey(id))
	if err == nil {
		return true, nil
	}
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return false, err
}

package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/storage"
)

const DefaultBatchSize = 100

// Importer writes fixture entries to storage in batches. Each batch is one
// transaction, so a failure leaves earlier batches stored and nothing of
// the failing one.
type Importer struct {
	tickets   storage.TicketRepository
	recipes   storage.RecipeRepository
	batchSize int
	progress  io.Writer
	logger    *slog.Logger
}

type Option func(*Importer) error

// WithBatchSize sets how many tickets are written per transaction.
func WithBatchSize(size int) Option {
	return func(i *Importer) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		i.batchSize = size
		return nil
	}
}

// WithProgress reports progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(i *Importer) error {
		i.progress = w
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) error {
		i.logger = logger
		return nil
	}
}

func NewImporter(tickets storage.TicketRepository, recipes storage.RecipeRepository, opts ...Option) (*Importer, error) {
	imp := &Importer{
		tickets:   tickets,
		recipes:   recipes,
		batchSize: DefaultBatchSize,
		progress:  io.Discard,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(imp); err != nil {
			return nil, err
		}
	}
	return imp, nil
}

// Result summarizes a finished import.
type Result struct {
	Tickets int
	Recipes int
	Elapsed time.Duration
}

// ImportFixture validates the fixture and imports it.
func (imp *Importer) ImportFixture(ctx context.Context, fixture *Fixture) (Result, error) {
	entries, err := fixture.Entries()
	if err != nil {
		return Result{}, err
	}
	return imp.Import(ctx, entries)
}

// Import stores entries batch by batch. The returned Result counts what was
// committed even when an error stops the import.
func (imp *Importer) Import(ctx context.Context, entries []Entry) (result Result, err error) {
	tracker := NewProgressTracker(imp.progress, len(entries), imp.batchSize)
	tracker.Start()
	defer tracker.Finish()

	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	for offset := 0; offset < len(entries); offset += imp.batchSize {
		if err = ctx.Err(); err != nil {
			return result, err
		}

		batch := entries[offset:min(offset+imp.batchSize, len(entries))]
		var recipes int
		recipes, err = imp.writeBatch(ctx, batch)
		if err != nil {
			imp.logger.Error("import batch failed", "offset", offset, "size", len(batch), "err", err)
			return result, fmt.Errorf("batch at ticket %d: %w", offset, err)
		}

		result.Tickets += len(batch)
		result.Recipes += recipes
		tracker.Increment(len(batch))
		imp.logger.Debug("import batch stored", "offset", offset, "tickets", len(batch), "recipes", recipes)
	}

	imp.logger.Info("import complete", "tickets", result.Tickets, "recipes", result.Recipes)
	return result, nil
}

func (imp *Importer) writeBatch(ctx context.Context, batch []Entry) (int, error) {
	var written int
	err := imp.tickets.WithTransaction(ctx, func(ctx context.Context) error {
		tickets := make([]*core.Ticket, len(batch))
		for i, entry := range batch {
			tickets[i] = entry.Ticket
		}
		if _, err := imp.tickets.AddTickets(ctx, tickets...); err != nil {
			return err
		}

		var recipes []*core.Recipe
		for _, entry := range batch {
			for _, recipe := range entry.Recipes {
				recipe.TicketId = entry.Ticket.Id
				recipes = append(recipes, recipe)
			}
		}
		if len(recipes) == 0 {
			return nil
		}
		if _, err := imp.recipes.AddRecipes(ctx, recipes...); err != nil {
			return err
		}
		written = len(recipes)
		return nil
	})
	return written, err
}

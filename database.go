// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package recipesearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/recipesearch/ai"
	"github.com/poiesic/recipesearch/ai/local"
	"github.com/poiesic/recipesearch/ai/openai"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/corpus"
	"github.com/poiesic/recipesearch/filter"
	"github.com/poiesic/recipesearch/importer"
	"github.com/poiesic/recipesearch/metrics"
	"github.com/poiesic/recipesearch/search"
	"github.com/poiesic/recipesearch/storage"
	"github.com/poiesic/recipesearch/storage/badger"
)

type Database struct {
	backend  *badger.Backend
	tickets  storage.TicketRepository
	recipes  storage.RecipeRepository
	provider ai.AIProvider
	// sharedProvider is set when provider is the process-wide local model,
	// which outlives the database.
	sharedProvider bool
	metrics        *metrics.Metrics
	logger         *slog.Logger

	searcherOnce sync.Once
	searcher     *search.Searcher
	searcherErr  error
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// WithAIConfig selects and configures the embedding provider.
// Default is the local model with ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory keeps everything in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithMetrics passes m to every searcher and controller the database creates.
func WithMetrics(m *metrics.Metrics) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = m
	}
}

func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider, shared, err := newProvider(options.aiConfig, options.logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		tickets:        badger.NewTicketRepository(backend),
		recipes:        badger.NewRecipeRepository(backend),
		provider:       provider,
		sharedProvider: shared,
		metrics:        options.metrics,
		logger:         options.logger,
	}, nil
}

// newProvider builds the provider cfg selects. A local backend with the
// default model settings gets the process-wide local.Default() provider, so
// every database in the process shares one loaded model; shared reports that
// case.
func newProvider(cfg *ai.Config, logger *slog.Logger) (provider ai.AIProvider, shared bool, err error) {
	backend := cfg.Backend
	if backend == "" {
		backend = ai.BackendLocal
	}
	switch backend {
	case ai.BackendLocal:
		if usesDefaultModel(cfg) {
			return local.Default(), true, nil
		}
		provider, err = local.NewProvider(cfg, local.WithLogger(logger))
		return provider, false, err
	case ai.BackendOpenAI:
		provider, err = openai.NewProvider(cfg)
		return provider, false, err
	default:
		return nil, false, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, backend)
	}
}

func usesDefaultModel(cfg *ai.Config) bool {
	def := ai.DefaultConfig()
	return cfg.Dimensions == def.Dimensions && cfg.VocabularyPath == def.VocabularyPath
}

func (db *Database) Close() error {
	if db.searcher != nil {
		db.searcher.Release()
	}

	if !db.sharedProvider {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) TicketRepository() storage.TicketRepository {
	return db.tickets
}

func (db *Database) RecipeRepository() storage.RecipeRepository {
	return db.recipes
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// Corpus builds the search candidates for every stored ticket, ordered by
// collection and position.
func (db *Database) Corpus(ctx context.Context) ([]core.Candidate, error) {
	return db.CollectionCorpus(ctx, "")
}

// CollectionCorpus builds the search candidates for one collection.
// Tickets and recipes are read in a single transaction so the corpus is a
// consistent snapshot.
func (db *Database) CollectionCorpus(ctx context.Context, collectionID string) ([]core.Candidate, error) {
	var candidates []core.Candidate
	err := db.tickets.WithTransaction(ctx, func(ctx context.Context) error {
		tickets, err := db.tickets.ListTickets(ctx, collectionID)
		if err != nil {
			return err
		}
		ids := make([]core.TicketID, len(tickets))
		for i, t := range tickets {
			ids[i] = t.Id
		}
		recipes, err := db.recipes.GetRecipesForTickets(ctx, ids...)
		if err != nil {
			return err
		}
		candidates = corpus.Build(tickets, recipes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// NewSearcher creates a searcher over the database's provider. The caller
// owns it and must Release it.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	defaults := []search.Option{search.WithLogger(db.logger), search.WithMetrics(db.metrics)}
	return search.NewSearcher(db.provider, append(defaults, opts...)...)
}

// Searcher returns the database's shared searcher, creating it on first use.
// It is released by Close.
func (db *Database) Searcher() (*search.Searcher, error) {
	db.searcherOnce.Do(func() {
		db.searcher, db.searcherErr = db.NewSearcher()
	})
	return db.searcher, db.searcherErr
}

// NewController creates a search controller that searches locally with the
// shared searcher and falls back to remote. remote may be nil.
func (db *Database) NewController(remote filter.RemoteSearcher, opts ...filter.Option) (*filter.Controller, error) {
	searcher, err := db.Searcher()
	if err != nil {
		return nil, err
	}
	defaults := []filter.Option{filter.WithLogger(db.logger), filter.WithMetrics(db.metrics)}
	return filter.NewController(searcher, remote, append(defaults, opts...)...)
}

// NewImporter creates an importer writing to the database's repositories.
func (db *Database) NewImporter(opts ...importer.Option) (*importer.Importer, error) {
	defaults := []importer.Option{importer.WithLogger(db.logger)}
	return importer.NewImporter(db.tickets, db.recipes, append(defaults, opts...)...)
}

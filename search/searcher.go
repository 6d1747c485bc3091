package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recipesearch/ai"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/metrics"
)

// Searcher ranks a corpus of candidates against a query by embedding similarity.
type Searcher struct {
	embedder ai.Embedder
	pool     *ants.Pool
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of candidates embedded concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithMetrics records candidate failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) error {
		s.metrics = m
		return nil
	}
}

// NewSearcher creates a searcher that embeds with the provider's Embedder.
// Call Release when done to free the worker pool.
func NewSearcher(provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		embedder: provider.Embedder(),
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// SearchLocally ranks candidates by similarity to query.
// Returns ErrQueryEmbedding if the query cannot be embedded. Candidates that
// fail to embed are skipped, so the result may hold fewer entries than
// candidates. Results are sorted by score descending; equal scores keep
// candidate order.
func (s *Searcher) SearchLocally(ctx context.Context, query string, candidates []core.Candidate) ([]core.SearchResult, error) {
	return s.SearchLocallyWithMonitor(ctx, query, candidates, nil)
}

// SearchLocallyWithMonitor is SearchLocally with callbacks at each stage.
func (s *Searcher) SearchLocallyWithMonitor(ctx context.Context, query string, candidates []core.Candidate, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, len(candidates))

	// 1. Embed the query once; every candidate is scored against this vector
	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbedding, err)
	}
	monitor.QueryEmbedded(len(queryVec))

	// 2. Embed and score candidates concurrently
	scored := make([]*core.SearchResult, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scored[i] = s.scoreCandidate(ctx, queryVec, candidate, monitor)
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("worker pool rejected candidate, scoring inline", "index", candidate.Index, "err", err)
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. Collect in candidate order so the stable sort keeps ties in that order
	results := make([]core.SearchResult, 0, len(candidates))
	for _, r := range scored {
		if r != nil {
			results = append(results, *r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	monitor.Finish(results)

	return results, nil
}

// scoreCandidate returns nil when the candidate cannot be embedded or scores
// to a non-finite value. Failures caused by ctx ending are not reported.
func (s *Searcher) scoreCandidate(ctx context.Context, queryVec []float32, candidate core.Candidate, monitor SearchMonitor) *core.SearchResult {
	vec, err := s.embedder.EmbedText(ctx, candidate.Text)
	if err != nil {
		if ctx.Err() != nil {
			// the whole search is being abandoned, not this candidate
			return nil
		}
		s.logger.Warn("skipping candidate that failed to embed", "index", candidate.Index, "id", candidate.Id, "err", err)
		s.metrics.CandidateFailed()
		monitor.CandidateFailed(candidate, err)
		return nil
	}

	score := CosineSimilarity(queryVec, vec)
	if !isFinite(score) {
		s.logger.Debug("dropping non-finite score", "index", candidate.Index)
		return nil
	}
	monitor.CandidateScored(candidate, score)

	return &core.SearchResult{
		Text:          candidate.Text,
		Score:         score,
		OriginalIndex: candidate.Index,
	}
}

// SearchTexts ranks a plain corpus; each result's OriginalIndex is the
// text's position in corpus.
func (s *Searcher) SearchTexts(ctx context.Context, query string, corpus []string) ([]core.SearchResult, error) {
	candidates := make([]core.Candidate, len(corpus))
	for i, text := range corpus {
		candidates[i] = core.Candidate{Index: i, Text: text}
	}
	return s.SearchLocally(ctx, query, candidates)
}

// SearchRecipes is SearchTexts for callers that cannot handle errors.
// Any failure is logged and yields an empty result.
func (s *Searcher) SearchRecipes(ctx context.Context, query string, recipeTexts []string) []core.SearchResult {
	results, err := s.SearchTexts(ctx, query, recipeTexts)
	if err != nil {
		s.logger.Error("recipe search failed", "err", err)
		return []core.SearchResult{}
	}
	return results
}

// Release releases the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

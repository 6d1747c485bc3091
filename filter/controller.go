package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/metrics"
	"github.com/poiesic/recipesearch/remote"
)

// DefaultThreshold is the minimum cosine similarity for a local result to match.
const DefaultThreshold = 0.2

// LocalSearcher ranks candidates in-process. *search.Searcher implements it.
type LocalSearcher interface {
	SearchLocally(ctx context.Context, query string, candidates []core.Candidate) ([]core.SearchResult, error)
}

// RemoteSearcher asks a server for matching ticket IDs. *remote.Client implements it.
type RemoteSearcher interface {
	Search(ctx context.Context, query string) ([]core.TicketID, error)
}

// Controller decides between local and remote search and tracks the
// resulting state.
//
// Local search runs while local mode is enabled and has not failed. The
// first local failure marks local search as failed for the session and the
// same query is retried remotely; later queries go straight to the remote
// backend until local mode is re-enabled.
//
// A new Submit or Clear cancels the search in flight. Results of a
// superseded search are discarded.
type Controller struct {
	local     LocalSearcher
	remote    RemoteSearcher
	threshold float64
	observer  Observer
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller) error

// WithThreshold sets the minimum score for a local result to match.
// Default is DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(c *Controller) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		c.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithObserver registers an observer for state changes.
func WithObserver(o Observer) Option {
	return func(c *Controller) error {
		if o == nil {
			o = noopObserver{}
		}
		c.observer = o
		return nil
	}
}

// WithMetrics records search outcomes and fallbacks on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) error {
		c.metrics = m
		return nil
	}
}

// WithLocalMode sets whether local search is tried first. Default is true.
func WithLocalMode(enabled bool) Option {
	return func(c *Controller) error {
		c.state.LocalEnabled = enabled
		return nil
	}
}

// NewController creates a controller. Either backend may be nil, but not both.
func NewController(local LocalSearcher, remote RemoteSearcher, opts ...Option) (*Controller, error) {
	if local == nil && remote == nil {
		return nil, ErrNoBackend
	}

	c := &Controller{
		local:     local,
		remote:    remote,
		threshold: DefaultThreshold,
		observer:  noopObserver{},
		logger:    slog.Default(),
		state: State{
			Status:       StatusIdle,
			LocalEnabled: true,
		},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Submit runs a search for query over candidates and returns the resulting
// state. A blank query does nothing and returns the current state.
//
// If a later Submit or Clear supersedes this call before it finishes, its
// outcome is dropped and the state current at return time is returned.
func (c *Controller) Submit(ctx context.Context, query string, candidates []core.Candidate) State {
	if strings.TrimSpace(query) == "" {
		return c.State()
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	gen := c.generation
	useLocal := c.local != nil && c.state.LocalEnabled && !c.state.LocalFailed
	c.state.Status = StatusSearching
	c.state.Query = query
	c.state.Matches = nil
	c.state.NoResults = false
	c.state.Error = ""
	c.state.Backend = BackendNone
	searching := c.state.clone()
	c.mu.Unlock()
	defer cancel()

	c.observer.StateChanged(searching)

	next := c.run(searchCtx, gen, query, candidates, useLocal)

	c.mu.Lock()
	if gen != c.generation {
		current := c.state.clone()
		c.mu.Unlock()
		c.logger.Debug("discarding superseded search", "query", query)
		return current
	}
	c.cancel = nil
	next.LocalEnabled = c.state.LocalEnabled
	next.LocalFailed = c.state.LocalFailed
	c.state = next
	result := c.state.clone()
	c.mu.Unlock()

	c.observer.StateChanged(result)
	return result
}

// run performs the search and returns the finished state without applying it.
func (c *Controller) run(ctx context.Context, gen uint64, query string, candidates []core.Candidate, useLocal bool) (next State) {
	next = State{Query: query}
	start := time.Now()
	backend := BackendRemote

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("search panicked", "query", query, "panic", r)
			next = State{Query: query, Status: StatusError, Error: GenericErrorMessage, Backend: backend}
		}
		if ctx.Err() == nil {
			c.metrics.ObserveSearch(string(next.Backend), outcome(next.Status), time.Since(start))
		}
	}()

	if useLocal {
		backend = BackendLocal
		results, err := c.local.SearchLocally(ctx, query, candidates)
		if err == nil {
			return finished(query, BackendLocal, MapResults(results, candidates, c.threshold))
		}
		if ctx.Err() != nil {
			return c.canceled(query, BackendLocal)
		}

		c.logger.Warn("local search failed, switching to remote", "err", err)
		c.markLocalFailed(gen)
		backend = BackendRemote
	}

	if c.remote == nil {
		c.logger.Error("no remote backend to search with")
		return State{Query: query, Status: StatusError, Error: GenericErrorMessage, Backend: BackendRemote}
	}

	ids, err := c.remote.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return c.canceled(query, BackendRemote)
		}
		c.logger.Error("remote search failed", "err", err)
		return State{Query: query, Status: StatusError, Error: userMessage(err), Backend: BackendRemote}
	}
	return finished(query, BackendRemote, ids)
}

// markLocalFailed records the local failure and tells the observer about the
// switch. The flag is set even if the search has been superseded: the model
// failed regardless.
func (c *Controller) markLocalFailed(gen uint64) {
	c.mu.Lock()
	already := c.state.LocalFailed
	c.state.LocalFailed = true
	current := gen == c.generation
	c.mu.Unlock()

	if already {
		return
	}
	c.metrics.Fallback()
	if current {
		c.observer.BackendSwitched(FallbackMessage)
	}
}

func (c *Controller) canceled(query string, backend Backend) State {
	return State{Query: query, Status: StatusError, Error: GenericErrorMessage, Backend: backend}
}

// SetLocalMode enables or disables local search. Enabling it clears a
// previous local failure so the next submission tries local search again.
func (c *Controller) SetLocalMode(enabled bool) State {
	c.mu.Lock()
	c.state.LocalEnabled = enabled
	if enabled {
		c.state.LocalFailed = false
	}
	s := c.state.clone()
	c.mu.Unlock()

	c.observer.StateChanged(s)
	return s
}

// Clear cancels any search in flight and returns to Idle, dropping matches,
// error and no-results flags.
func (c *Controller) Clear() State {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.state = State{
		Status:       StatusIdle,
		LocalEnabled: c.state.LocalEnabled,
		LocalFailed:  c.state.LocalFailed,
	}
	s := c.state.clone()
	c.mu.Unlock()

	c.observer.StateChanged(s)
	return s
}

func finished(query string, backend Backend, ids []core.TicketID) State {
	if len(ids) == 0 {
		return State{Query: query, Status: StatusNoResults, NoResults: true, Matches: core.MatchSet{}, Backend: backend}
	}
	return State{Query: query, Status: StatusResults, Matches: core.MatchSet(ids), Backend: backend}
}

func userMessage(err error) string {
	var re *remote.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return GenericErrorMessage
}

func outcome(s Status) string {
	switch s {
	case StatusResults:
		return metrics.OutcomeResults
	case StatusNoResults:
		return metrics.OutcomeNoResults
	}
	return metrics.OutcomeError
}

// MapResults keeps results scoring at least threshold and maps them to
// ticket IDs in result order.
//
// A result is joined to its candidate by OriginalIndex when that index
// belongs to a candidate, otherwise to the first candidate with exactly the
// same text. Results that match neither way are dropped. Each ticket
// appears at most once.
func MapResults(results []core.SearchResult, candidates []core.Candidate, threshold float64) []core.TicketID {
	byIndex := make(map[int]core.Candidate, len(candidates))
	for _, c := range candidates {
		if _, ok := byIndex[c.Index]; !ok {
			byIndex[c.Index] = c
		}
	}

	ids := make([]core.TicketID, 0, len(results))
	seen := make(map[core.TicketID]bool, len(results))
	for _, r := range results {
		if r.Score < threshold {
			continue
		}

		cand, ok := core.Candidate{}, false
		if r.HasIndex() {
			cand, ok = byIndex[r.OriginalIndex]
		}
		if !ok {
			for _, c := range candidates {
				if c.Text == r.Text {
					cand, ok = c, true
					break
				}
			}
		}
		if !ok || seen[cand.Id] {
			continue
		}

		seen[cand.Id] = true
		ids = append(ids, cand.Id)
	}
	return ids
}

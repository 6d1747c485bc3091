package search

import "github.com/poiesic/recipesearch/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Candidate hooks are called from worker goroutines and must be safe for
// concurrent use.
type SearchMonitor interface {
	Start(query string, candidates int)
	QueryEmbedded(dimensions int)
	CandidateFailed(candidate core.Candidate, err error)
	CandidateScored(candidate core.Candidate, score float64)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                       {}
func (n *noopMonitor) QueryEmbedded(_ int)                         {}
func (n *noopMonitor) CandidateFailed(_ core.Candidate, _ error)   {}
func (n *noopMonitor) CandidateScored(_ core.Candidate, _ float64) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                {}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/filter"
	"github.com/poiesic/recipesearch/metrics"
	"github.com/poiesic/recipesearch/remote"
)

// Larger request bodies are rejected before decoding.
const maxRequestBytes = 64 << 10

const metricsBackend = "server"

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleSearch ranks the stored corpus against the query and answers with the
// ticket IDs scoring at least the configured threshold. The useLocal flag
// is accepted for compatibility; the server always searches with its own
// provider.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With("request_id", middleware.GetReqID(ctx))

	var req remote.SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		logger.Debug("rejecting malformed search request", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	ids, err := s.search(r, query)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("search failed", "query", query, "err", err)
		s.metrics.ObserveSearch(metricsBackend, metrics.OutcomeError, time.Since(start))
		writeError(w, http.StatusInternalServerError, filter.GenericErrorMessage)
		return
	}

	outcome := metrics.OutcomeResults
	if len(ids) == 0 {
		outcome = metrics.OutcomeNoResults
	}
	s.metrics.ObserveSearch(metricsBackend, outcome, time.Since(start))
	logger.Debug("search served", "query", query, "use_local", req.UseLocal, "matches", len(ids))

	resp := remote.SearchResponse{TicketIDs: make([]string, len(ids))}
	for i, id := range ids {
		resp.TicketIDs[i] = string(id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) search(r *http.Request, query string) ([]core.TicketID, error) {
	candidates, err := s.corpus.Corpus(r.Context())
	if err != nil {
		return nil, errors.Join(ErrCorpus, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	results, err := s.searcher.SearchLocally(r.Context(), query, candidates)
	if err != nil {
		return nil, err
	}
	return filter.MapResults(results, candidates, s.cfg.Threshold), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

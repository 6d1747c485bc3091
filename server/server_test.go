package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/recipesearch/ai"
	"github.com/poiesic/recipesearch/ai/local"
	"github.com/poiesic/recipesearch/core"
	"github.com/poiesic/recipesearch/filter"
	"github.com/poiesic/recipesearch/metrics"
	"github.com/poiesic/recipesearch/remote"
	"github.com/poiesic/recipesearch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	SearchFunc func(ctx context.Context, query string, candidates []core.Candidate) ([]core.SearchResult, error)
}

func (f *fakeSearcher) SearchLocally(ctx context.Context, query string, candidates []core.Candidate) ([]core.SearchResult, error) {
	return f.SearchFunc(ctx, query, candidates)
}

type fakeCorpus struct {
	candidates []core.Candidate
	err        error
}

func (f *fakeCorpus) Corpus(context.Context) ([]core.Candidate, error) {
	return f.candidates, f.err
}

var testCandidates = []core.Candidate{
	{Index: 0, Id: "t0", Text: "tomato soup"},
	{Index: 1, Id: "t1", Text: "chocolate cake"},
	{Index: 2, Id: "t2", Text: "tomato salad"},
}

func newTestServer(t *testing.T, searcher Searcher, corpus CorpusSource, opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	srv, err := New(cfg, searcher, corpus, opts...)
	require.NoError(t, err)
	return srv
}

func postSearch(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestNew_Validation(t *testing.T) {
	searcher := &fakeSearcher{}
	corpus := &fakeCorpus{}

	_, err := New(Config{}, searcher, corpus)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.Threshold = 2
	_, err = New(cfg, searcher, corpus)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(DefaultConfig(), nil, corpus)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHandleSearch_AppliesThreshold(t *testing.T) {
	searcher := &fakeSearcher{SearchFunc: func(_ context.Context, query string, candidates []core.Candidate) ([]core.SearchResult, error) {
		assert.Equal(t, "tomato", query)
		assert.Len(t, candidates, 3)
		return []core.SearchResult{
			{Text: "tomato salad", Score: 0.8, OriginalIndex: 2},
			{Text: "tomato soup", Score: 0.5, OriginalIndex: 0},
			{Text: "chocolate cake", Score: 0.1, OriginalIndex: 1},
		}, nil
	}}
	srv := newTestServer(t, searcher, &fakeCorpus{candidates: testCandidates})

	rec, body := postSearch(t, srv.Handler(), `{"query":"  tomato ","useLocal":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []any{"t2", "t0"}, body["ticketIds"])
	assert.NotContains(t, body, "error")
}

func TestHandleSearch_NoMatchesIsEmptyList(t *testing.T) {
	searcher := &fakeSearcher{SearchFunc: func(context.Context, string, []core.Candidate) ([]core.SearchResult, error) {
		return []core.SearchResult{{Text: "tomato soup", Score: 0.05, OriginalIndex: 0}}, nil
	}}
	srv := newTestServer(t, searcher, &fakeCorpus{candidates: testCandidates})

	rec, body := postSearch(t, srv.Handler(), `{"query":"pizza"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["ticketIds"])
}

func TestHandleSearch_EmptyCorpusSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{SearchFunc: func(context.Context, string, []core.Candidate) ([]core.SearchResult, error) {
		t.Fatal("searcher must not run on an empty corpus")
		return nil, nil
	}}
	srv := newTestServer(t, searcher, &fakeCorpus{})

	rec, body := postSearch(t, srv.Handler(), `{"query":"pizza"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["ticketIds"])
}

func TestHandleSearch_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{}, &fakeCorpus{candidates: testCandidates})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"blank query", `{"query":"   "}`},
		{"missing query", `{}`},
		{"wrong type", `{"query":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := postSearch(t, srv.Handler(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleSearch_Failures(t *testing.T) {
	failing := &fakeSearcher{SearchFunc: func(context.Context, string, []core.Candidate) ([]core.SearchResult, error) {
		return nil, errors.New("model exploded")
	}}

	t.Run("search error", func(t *testing.T) {
		srv := newTestServer(t, failing, &fakeCorpus{candidates: testCandidates})
		rec, body := postSearch(t, srv.Handler(), `{"query":"soup"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, filter.GenericErrorMessage, body["error"], "internal errors are not leaked")
	})

	t.Run("corpus error", func(t *testing.T) {
		srv := newTestServer(t, failing, &fakeCorpus{err: errors.New("disk gone")})
		rec, body := postSearch(t, srv.Handler(), `{"query":"soup"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, filter.GenericErrorMessage, body["error"])
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		srv := newTestServer(t, failing, &fakeCorpus{candidates: testCandidates}, WithLogger(nil))
		require.NotNil(t, srv.logger)
		rec, _ := postSearch(t, srv.Handler(), `{"query":"soup"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic", func(t *testing.T) {
		panicking := &fakeSearcher{SearchFunc: func(context.Context, string, []core.Candidate) ([]core.SearchResult, error) {
			panic("boom")
		}}
		srv := newTestServer(t, panicking, &fakeCorpus{candidates: testCandidates})
		rec, body := postSearch(t, srv.Handler(), `{"query":"soup"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, filter.GenericErrorMessage, body["error"])
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{}, &fakeCorpus{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	searcher := &fakeSearcher{SearchFunc: func(context.Context, string, []core.Candidate) ([]core.SearchResult, error) {
		return []core.SearchResult{{Text: "tomato soup", Score: 0.9, OriginalIndex: 0}}, nil
	}}
	srv := newTestServer(t, searcher, &fakeCorpus{candidates: testCandidates}, WithMetrics(m))

	postSearch(t, srv.Handler(), `{"query":"soup"}`)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `recipesearch_searches_total{backend="server",outcome="results"} 1`)
	assert.Contains(t, out, `/api/search`)
}

func TestMetricsEndpoint_AbsentWithoutMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{}, &fakeCorpus{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// The remote client and the server agree on the wire format, end to end with
// the local model doing the ranking.
func TestRemoteClientRoundTrip(t *testing.T) {
	provider, err := local.NewProvider(ai.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	searcher, err := search.NewSearcher(provider, search.WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(searcher.Release)

	srv := newTestServer(t, searcher, &fakeCorpus{candidates: testCandidates})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := remote.NewClient(ts.URL + "/api/search")
	ids, err := client.Search(context.Background(), "tomato soup")
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	assert.Equal(t, core.TicketID("t0"), ids[0])
	assert.NotContains(t, ids, core.TicketID("t1"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{}, &fakeCorpus{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

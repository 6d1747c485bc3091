// Package remote is the client for the server-side search endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/recipesearch/core"
)

// SearchRequest is the body posted to the search endpoint.
type SearchRequest struct {
	Query    string `json:"query"`
	UseLocal bool   `json:"useLocal"`
}

// SearchResponse is the body returned by the search endpoint. Exactly one of
// TicketIDs and Error is meaningful.
type SearchResponse struct {
	TicketIDs []string `json:"ticketIds"`
	Error     string   `json:"error,omitempty"`
}

// Client posts queries to a remote search endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Timeouts are whatever that client
// enforces; Default is http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the search endpoint at endpoint, for
// example "http://localhost:8080/api/search".
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search asks the server to rank tickets for query and returns their IDs in
// the server's order. Every failure is a *RemoteError wrapping ErrRemoteSearch.
func (c *Client) Search(ctx context.Context, query string) ([]core.TicketID, error) {
	body, err := json.Marshal(SearchRequest{Query: query, UseLocal: false})
	if err != nil {
		return nil, &RemoteError{Message: "could not encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Message: "could not create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("remote search request failed", "endpoint", c.endpoint, "err", err)
		return nil, &RemoteError{Message: "could not reach search server", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("remote search returned error status", "status", resp.StatusCode)
		return nil, &RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("Server error: %d", resp.StatusCode)}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &RemoteError{Status: resp.StatusCode, Message: "invalid response from search server", Err: err}
	}
	if out.Error != "" {
		return nil, &RemoteError{Status: resp.StatusCode, Message: out.Error}
	}

	ids := make([]core.TicketID, len(out.TicketIDs))
	for i, id := range out.TicketIDs {
		ids[i] = core.TicketID(id)
	}
	return ids, nil
}

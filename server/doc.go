// Package server exposes the search endpoint used as the remote fallback.
//
// Routes:
//
//	POST /api/search  {"query": "...", "useLocal": false} -> {"ticketIds": [...]}
//	GET  /healthz
//	GET  /metrics     (when metrics are configured)
//
// Bad input is answered with 400 and a failed search with 500, both carrying
// {"error": "..."}.
package server

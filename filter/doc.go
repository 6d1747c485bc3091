// Package filter implements the search orchestrator behind the ticket filter.
//
// A Controller takes a query and the caller's candidates, searches locally
// when it can, falls back to the remote endpoint when the local model fails,
// applies the relevance threshold, and exposes the outcome as a State:
//
//	Idle -> Searching -> Results | NoResults | Error
//
// Blank queries are ignored. Clear returns to Idle from any state.
package filter

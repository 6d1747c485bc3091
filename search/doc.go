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


// Package search provides local semantic search over a caller-supplied corpus.
//
// The Searcher embeds the query once, embeds every candidate concurrently on
// a worker pool, scores each candidate against the query with cosine
// similarity, and returns the results ranked by score. Candidates that fail
// to embed are logged and skipped; only a failure to embed the query aborts
// the search.
//
// Every result carries the index of its candidate in the caller's corpus so
// callers can join results back to their own records.
package search

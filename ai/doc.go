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


// Package ai provides the embedding abstractions used by recipe search.
//
// The package defines two interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns an Embedder and its resources
//
// # Implementation Packages
//
//   - ai/local: In-process hashed-token model, no network access
//   - ai/openai: OpenAI-compatible APIs via langchaingo (Ollama, vLLM, OpenAI)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// openai.NewProvider returns the ai.AIProvider interface. local.NewProvider
// returns *local.Provider so callers can inspect and reset the cached model.
// Mock constructors return concrete types so tests can inject behavior and
// assert on call counts.
//
// # Retries
//
// RetryPolicy wraps remote embedding calls in exponential backoff. Failures
// Permanent reports, and failures the policy's Retryable rejects, are
// returned after the first attempt.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithBackend(ai.BackendLocal))
//	provider, err := local.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "creamy tomato soup")
//
// Errors from any implementation wrap ErrEmbedding so callers can test
// with errors.Is regardless of backend.
package ai

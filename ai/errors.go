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


package ai

import "errors"

var (
	// ErrEmbedding is returned when a text could not be turned into a vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrModelLoad is returned when the local embedding model could not be loaded.
	ErrModelLoad = errors.New("embedding model failed to load")

	// ErrProviderClosed is returned when an embedder is used after Close.
	ErrProviderClosed = errors.New("ai provider is closed")

	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown embedding backend")

	// ErrInvalidMaxAttempts is returned when retry is asked for zero or fewer attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be positive")
)

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


// Package storage provides the storage abstraction layer for recipesearch.
//
// This package defines repository interfaces that decouple persistence of
// tickets and recipes from the search pipeline. The badger subpackage holds
// the BadgerDB implementation; tests use its in-memory mode.
//
// # Architecture
//
//   - Repository: transaction support and lifecycle shared by all repositories
//   - TicketRepository: free-text tickets grouped into collections
//   - RecipeRepository: structured recipes derived from tickets
//
// Records are encoded with mus-go. Every record starts with a format version
// so older databases can be detected instead of misread.
//
// # Usage
//
//	tickets, recipes, backend, err := badger.NewRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage

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


package filter

import "errors"

var (
	// ErrNoBackend is returned when a controller is built without any search backend.
	ErrNoBackend = errors.New("at least one search backend required")

	// ErrInvalidThreshold is returned for a threshold outside [-1, 1].
	ErrInvalidThreshold = errors.New("threshold must be between -1 and 1")
)

// User-facing messages.
const (
	// GenericErrorMessage is shown for any failure without a message of its own.
	GenericErrorMessage = "Search failed. Please try again."

	// FallbackMessage is sent to the observer when local search is abandoned
	// for the remote backend.
	FallbackMessage = "Switched to Cloud AI"
)

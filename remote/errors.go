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


package remote

import (
	"errors"
	"fmt"
)

// ErrRemoteSearch is returned for every failed remote search.
var ErrRemoteSearch = errors.New("remote search failed")

// RemoteError carries the user-facing message of a failed remote search.
type RemoteError struct {
	// Status is the HTTP status code, or 0 if the request never got a response.
	Status int
	// Message is safe to show to a user.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrRemoteSearch, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrRemoteSearch, e.Message)
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemoteSearch, e.Err}
	}
	return []error{ErrRemoteSearch}
}

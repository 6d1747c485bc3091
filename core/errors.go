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


package core

import "errors"

var (
	// ErrInvalidTicket indicates a Ticket failed validation.
	ErrInvalidTicket = errors.New("invalid ticket")

	// ErrInvalidRecipe indicates a Recipe failed validation.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyTicketID indicates a missing ticket identifier.
	ErrEmptyTicketID = errors.New("ticket id cannot be empty")

	// ErrEmptyTitle indicates the recipe Title field is empty.
	ErrEmptyTitle = errors.New("recipe title cannot be empty")

	// ErrNegativePosition indicates a ticket position below zero.
	ErrNegativePosition = errors.New("position cannot be negative")
)

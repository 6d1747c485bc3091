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

import (
	"fmt"
	"strings"
)

// ValidateTicket checks that a ticket can be stored.
// The ID may be empty; repositories assign one on insert.
func ValidateTicket(ticket *Ticket) error {
	if ticket == nil {
		return fmt.Errorf("%w: ticket is nil", ErrInvalidTicket)
	}

	if strings.TrimSpace(ticket.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTicket, ErrEmptyContent)
	}

	if ticket.Position < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTicket, ErrNegativePosition)
	}

	return nil
}

// ValidateRecipe checks that a recipe is attached to a ticket and has a title.
func ValidateRecipe(recipe *Recipe) error {
	if recipe == nil {
		return fmt.Errorf("%w: recipe is nil", ErrInvalidRecipe)
	}

	if recipe.TicketId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, ErrEmptyTicketID)
	}

	if strings.TrimSpace(recipe.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, ErrEmptyTitle)
	}

	return nil
}

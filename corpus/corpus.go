// Package corpus turns tickets and their recipes into search candidates.
package corpus

import (
	"strings"

	"github.com/poiesic/recipesearch/core"
)

// RecipeText returns the searchable text of a recipe: title, ingredients,
// instructions and notes joined by single spaces, with list fields
// comma-joined. Empty parts are skipped.
func RecipeText(r *core.Recipe) string {
	if r == nil {
		return ""
	}
	parts := []string{
		r.Title,
		strings.Join(r.Ingredients, ", "),
		strings.Join(r.Instructions, ", "),
		r.Notes,
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Build returns one candidate per ticket, in ticket order. A ticket with at
// least one recipe is represented by its first recipe's text, otherwise by
// its raw content. Candidate.Index is the ticket's position in tickets.
func Build(tickets []*core.Ticket, recipesByTicket map[core.TicketID][]*core.Recipe) []core.Candidate {
	candidates := make([]core.Candidate, 0, len(tickets))
	for i, t := range tickets {
		if t == nil {
			continue
		}
		text := t.Content
		if recipes := recipesByTicket[t.Id]; len(recipes) > 0 && recipes[0] != nil {
			text = RecipeText(recipes[0])
		}
		candidates = append(candidates, core.Candidate{Index: i, Id: t.Id, Text: text})
	}
	return candidates
}

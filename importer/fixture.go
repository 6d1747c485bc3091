package importer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/recipesearch/core"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document accepted by the importer.
//
//	tickets:
//	  - collection: dinners
//	    content: |
//	      Tomato soup
//	      tomatoes, basil, cream
//	    recipes:
//	      - title: Tomato soup
//	        ingredients: [tomatoes, basil, cream]
//	        instructions: [simmer, blend]
type Fixture struct {
	Tickets []FixtureTicket `yaml:"tickets"`
}

type FixtureTicket struct {
	Id         string          `yaml:"id"`
	Collection string          `yaml:"collection"`
	Content    string          `yaml:"content"`
	Position   *int            `yaml:"position"` // Defaults to the order of appearance within the collection
	CreatedAt  time.Time       `yaml:"created_at"`
	Recipes    []FixtureRecipe `yaml:"recipes"`
}

type FixtureRecipe struct {
	Title        string   `yaml:"title"`
	Ingredients  []string `yaml:"ingredients"`
	Instructions []string `yaml:"instructions"`
	Notes        string   `yaml:"notes"`
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFixture(f)
}

// ParseFixture decodes a fixture and rejects unknown fields.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fixture Fixture
	if err := dec.Decode(&fixture); err != nil {
		if err == io.EOF {
			return &fixture, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &fixture, nil
}

// Entry is one ticket ready to be stored, with its recipes.
type Entry struct {
	Ticket  *core.Ticket
	Recipes []*core.Recipe
}

// Entries converts the fixture into domain records and validates them.
// Recipes of tickets without an ID are attached once the ticket is stored.
func (f *Fixture) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(f.Tickets))
	nextPosition := make(map[string]int)
	seen := make(map[string]int)

	for i, ft := range f.Tickets {
		position := nextPosition[ft.Collection]
		if ft.Position != nil {
			position = *ft.Position
		}
		nextPosition[ft.Collection] = max(nextPosition[ft.Collection], position+1)

		ticket := &core.Ticket{
			Id:           core.TicketID(ft.Id),
			CollectionId: ft.Collection,
			Content:      ft.Content,
			Position:     position,
			CreatedAt:    ft.CreatedAt,
		}
		if err := core.ValidateTicket(ticket); err != nil {
			return nil, fmt.Errorf("%w: ticket %d: %w", ErrInvalidFixture, i, err)
		}
		if ft.Id != "" {
			if prev, dup := seen[ft.Id]; dup {
				return nil, fmt.Errorf("%w: ticket %d repeats id %q of ticket %d", ErrInvalidFixture, i, ft.Id, prev)
			}
			seen[ft.Id] = i
		}

		entry := Entry{Ticket: ticket}
		for j, fr := range ft.Recipes {
			recipe := &core.Recipe{
				TicketId:     ticket.Id,
				Title:        fr.Title,
				Ingredients:  fr.Ingredients,
				Instructions: fr.Instructions,
				Notes:        fr.Notes,
			}
			// The ticket ID may still be unassigned, so only the title is checked here
			if strings.TrimSpace(recipe.Title) == "" {
				return nil, fmt.Errorf("%w: ticket %d recipe %d: %w", ErrInvalidFixture, i, j, core.ErrEmptyTitle)
			}
			entry.Recipes = append(entry.Recipes, recipe)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

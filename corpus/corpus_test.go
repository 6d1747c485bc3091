package corpus

import (
	"testing"

	"github.com/poiesic/recipesearch/core"
	"github.com/stretchr/testify/assert"
)

func TestRecipeText(t *testing.T) {
	tests := []struct {
		name   string
		recipe *core.Recipe
		want   string
	}{
		{
			name: "all fields",
			recipe: &core.Recipe{
				Title:        "Pancakes",
				Ingredients:  []string{"flour", "milk", "eggs"},
				Instructions: []string{"mix", "fry"},
				Notes:        "serve warm",
			},
			want: "Pancakes flour, milk, eggs mix, fry serve warm",
		},
		{
			name:   "title only",
			recipe: &core.Recipe{Title: "Toast"},
			want:   "Toast",
		},
		{
			name:   "blank notes skipped",
			recipe: &core.Recipe{Title: "Tea", Ingredients: []string{"water"}, Notes: "  "},
			want:   "Tea water",
		},
		{
			name:   "nil",
			recipe: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecipeText(tt.recipe))
		})
	}
}

func TestBuild(t *testing.T) {
	tickets := []*core.Ticket{
		{Id: "t1", Content: "raw soup notes"},
		{Id: "t2", Content: "cake scribbles"},
		{Id: "t3", Content: "just a thought"},
	}
	recipes := map[core.TicketID][]*core.Recipe{
		"t2": {
			{TicketId: "t2", Title: "Cake", Ingredients: []string{"flour", "sugar"}},
			{TicketId: "t2", Title: "Second cake"},
		},
		"t3": {},
	}

	got := Build(tickets, recipes)

	assert.Equal(t, []core.Candidate{
		{Index: 0, Id: "t1", Text: "raw soup notes"},
		{Index: 1, Id: "t2", Text: "Cake flour, sugar"},
		{Index: 2, Id: "t3", Text: "just a thought"},
	}, got)
}

func TestBuild_KeepsTicketPositions(t *testing.T) {
	tickets := []*core.Ticket{{Id: "a", Content: "x"}, nil, {Id: "c", Content: "z"}}

	got := Build(tickets, nil)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, core.TicketID("c"), got[1].Id)
}

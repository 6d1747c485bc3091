package storage

import (
	"testing"
	"time"

	"github.com/poiesic/recipesearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("t1|Pancakes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedData)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalTicket(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name   string
		ticket *core.Ticket
	}{
		{
			name: "full ticket",
			ticket: &core.Ticket{
				Id:           "7d7a1d34-0f0e-4c55-a3a4-4ad54a3f0d11",
				CollectionId: "dinners",
				Content:      "Grandma's tomato soup\n- tomatoes\n- basil",
				Position:     3,
				CreatedAt:    now,
				UpdatedAt:    now.Add(time.Minute),
			},
		},
		{
			name: "zero timestamps",
			ticket: &core.Ticket{
				Id:      "t1",
				Content: "Pancakes",
			},
		},
		{
			name: "unicode content",
			ticket: &core.Ticket{
				Id:      "t2",
				Content: "Crème brûlée 🍮",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalTicket(MarshalTicket(tt.ticket))
			require.NoError(t, err)

			assert.Equal(t, tt.ticket.Id, decoded.Id)
			assert.Equal(t, tt.ticket.CollectionId, decoded.CollectionId)
			assert.Equal(t, tt.ticket.Content, decoded.Content)
			assert.Equal(t, tt.ticket.Position, decoded.Position)
			assert.True(t, tt.ticket.CreatedAt.Equal(decoded.CreatedAt))
			assert.True(t, tt.ticket.UpdatedAt.Equal(decoded.UpdatedAt))
			assert.Equal(t, tt.ticket.CreatedAt.IsZero(), decoded.CreatedAt.IsZero())
		})
	}
}

func TestMarshalUnmarshalRecipe(t *testing.T) {
	now := time.Now().UTC()
	recipe := &core.Recipe{
		Id:           core.IDFromContent("t1|Pancakes"),
		TicketId:     "t1",
		Title:        "Pancakes",
		Ingredients:  []string{"flour", "milk", "eggs"},
		Instructions: []string{"mix", "fry"},
		Notes:        "serve warm",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	decoded, err := UnmarshalRecipe(MarshalRecipe(recipe))
	require.NoError(t, err)

	assert.Equal(t, recipe.Id, decoded.Id)
	assert.Equal(t, recipe.TicketId, decoded.TicketId)
	assert.Equal(t, recipe.Title, decoded.Title)
	assert.Equal(t, recipe.Ingredients, decoded.Ingredients)
	assert.Equal(t, recipe.Instructions, decoded.Instructions)
	assert.Equal(t, recipe.Notes, decoded.Notes)
	assert.True(t, recipe.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshalRecipe_EmptyLists(t *testing.T) {
	recipe := &core.Recipe{Id: 1, TicketId: "t1", Title: "Toast"}

	decoded, err := UnmarshalRecipe(MarshalRecipe(recipe))
	require.NoError(t, err)
	assert.Empty(t, decoded.Ingredients)
	assert.Empty(t, decoded.Instructions)
}

func TestUnmarshal_Corrupt(t *testing.T) {
	data := MarshalTicket(&core.Ticket{Id: "t1", Content: "Pancakes", Position: 1})

	t.Run("empty", func(t *testing.T) {
		_, err := UnmarshalTicket(nil)
		assert.ErrorIs(t, err, ErrTruncatedData)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := UnmarshalTicket(data[:len(data)-2])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := UnmarshalTicket(append(append([]byte{}, data...), 0x01))
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("unknown version", func(t *testing.T) {
		bad := append([]byte{}, data...)
		bad[0] = 0x7e // varint zigzag of a version far past the current one
		_, err := UnmarshalTicket(bad)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("recipe from ticket bytes", func(t *testing.T) {
		_, err := UnmarshalRecipe(data)
		assert.Error(t, err)
	})
}

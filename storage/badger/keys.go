package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/recipesearch/core"
)

// Key prefixes for different data types
const (
	ticketPrefix       = "tkt"
	ticketOrderPrefix  = "tkto"
	recipePrefix       = "rcp"
	recipeTicketPrefix = "rcpt"
)

// Separates variable-length string components inside composite keys.
const keySeparator = 0x00

// makeTicketKey generates a key for a ticket by ID.
func makeTicketKey(id core.TicketID) []byte {
	return []byte(ticketPrefix + ":" + string(id))
}

// makeTicketOrderKey generates a composite key for the collection order index.
// Format: prefix:collection\x00position:createdAt:id
func makeTicketOrderKey(t *core.Ticket) []byte {
	buf := makePartialTicketOrderKey(t.CollectionId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Position))
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.CreatedAt.UnixMicro()))
	return append(buf, t.Id...)
}

// makePartialTicketOrderKey generates a prefix for listing one collection.
// An empty collection yields the prefix of the whole index.
func makePartialTicketOrderKey(collectionID string) []byte {
	buf := []byte(ticketOrderPrefix + ":")
	if collectionID == "" {
		return buf
	}
	buf = append(buf, collectionID...)
	return append(buf, keySeparator)
}

// makeRecipeKey generates a key for a recipe by ID.
func makeRecipeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", recipePrefix, id))
}

// makeRecipeTicketKey generates a composite key for the ticket index.
// Format: prefix:ticket\x00createdAt:id
func makeRecipeTicketKey(ticketID core.TicketID, createdAt time.Time, id core.ID) []byte {
	buf := makePartialRecipeTicketKey(ticketID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(createdAt.UnixMicro()))
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialRecipeTicketKey generates a prefix for one ticket's recipes.
func makePartialRecipeTicketKey(ticketID core.TicketID) []byte {
	buf := []byte(recipeTicketPrefix + ":")
	buf = append(buf, ticketID...)
	return append(buf, keySeparator)
}

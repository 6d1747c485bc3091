package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a content-derived identifier for recipes.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TicketID identifies a ticket. Tickets created elsewhere keep whatever
// identifier the owning service assigned; tickets created locally get a UUID.
type TicketID string

// NewTicketID returns a fresh random ticket identifier.
func NewTicketID() TicketID {
	return TicketID(uuid.NewString())
}

// Ticket is a free-text card belonging to a collection.
type Ticket struct {
	Id           TicketID
	CollectionId string
	Content      string
	Position     int       // Order within the collection, ascending
	CreatedAt    time.Time // When the ticket was created
	UpdatedAt    time.Time // When the ticket was last updated
}

// Recipe is the structured form of a ticket.
type Recipe struct {
	Id           ID
	TicketId     TicketID
	Title        string
	Ingredients  []string
	Instructions []string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContentKey returns the text the recipe ID is derived from.
func (r *Recipe) ContentKey() string {
	return string(r.TicketId) + "|" + r.Title
}

// NoIndex marks a SearchResult whose position in the corpus is unknown.
const NoIndex = -1

// Candidate pairs a corpus entry with the ticket it was built from.
// Index is the entry's position in the corpus handed to the search engine.
type Candidate struct {
	Index int
	Id    TicketID
	Text  string
}

// SearchResult is one scored corpus entry.
type SearchResult struct {
	Text          string
	Score         float64 // Cosine similarity in [-1, 1]
	OriginalIndex int     // Position in the searched corpus, or NoIndex
}

// HasIndex reports whether the result carries a usable corpus position.
func (r SearchResult) HasIndex() bool {
	return r.OriginalIndex >= 0
}

// MatchSet is the ordered set of tickets reported for a query.
type MatchSet []TicketID

package core

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty string", content: ""},
		{name: "simple text", content: "Hello, World!"},
		{name: "unicode", content: "crème brûlée"},
		{name: "recipe key", content: "ticket-1|Pancakes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() not deterministic: got %v and %v", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNewTicketID(t *testing.T) {
	id1 := NewTicketID()
	id2 := NewTicketID()

	if id1 == id2 {
		t.Errorf("NewTicketID() returned duplicate id %q", id1)
	}
	if _, err := uuid.Parse(string(id1)); err != nil {
		t.Errorf("NewTicketID() = %q is not a UUID: %v", id1, err)
	}
}

func TestRecipe_ContentKey(t *testing.T) {
	r1 := Recipe{TicketId: "t1", Title: "Pancakes"}
	r2 := Recipe{TicketId: "t2", Title: "Pancakes"}

	if r1.ContentKey() == r2.ContentKey() {
		t.Errorf("ContentKey() should differ across tickets")
	}
	if got, want := r1.ContentKey(), "t1|Pancakes"; got != want {
		t.Errorf("ContentKey() = %q, want %q", got, want)
	}
}

func TestSearchResult_HasIndex(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  bool
	}{
		{name: "first entry", index: 0, want: true},
		{name: "later entry", index: 7, want: true},
		{name: "no index", index: NoIndex, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SearchResult{Text: "x", Score: 0.5, OriginalIndex: tt.index}
			if got := r.HasIndex(); got != tt.want {
				t.Errorf("HasIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

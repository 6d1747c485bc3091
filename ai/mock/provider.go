package mock

import (
	"sync/atomic"

	"github.com/poiesic/recipesearch/ai"
)

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder *MockEmbedder
	closed   atomic.Bool
}

func NewMockProvider() *MockProvider {
	return &MockProvider{embedder: NewMockEmbedder()}
}

func NewMockProviderWithEmbedder(embedder *MockEmbedder) *MockProvider {
	return &MockProvider{embedder: embedder}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}

func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

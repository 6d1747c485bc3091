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


package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/recipesearch/ai"
)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used by the provider.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// Provider runs the embedding model in-process.
//
// The model is loaded on the first embedding call and cached for the life of
// the provider. A failed load is not cached; the next call tries again.
// Inference is serialized, so concurrent callers queue behind one another.
type Provider struct {
	config *ai.Config
	load   func(*ai.Config) (*model, error)
	logger *slog.Logger

	mu     sync.Mutex
	model  *model
	closed bool

	embedder *Embedder
}

// NewProvider creates a local provider. No model is loaded until the first
// embedding request.
func NewProvider(config *ai.Config, opts ...Option) (*Provider, error) {
	cfg := *config
	cfg.Backend = ai.BackendLocal
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config: &cfg,
		load:   loadModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "local-embedder")
	p.embedder = &Embedder{provider: p}
	return p, nil
}

func loadModel(cfg *ai.Config) (*model, error) {
	vocab := DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		var err error
		vocab, err = LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
	}
	return newModel(cfg.Dimensions, vocab), nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Loaded reports whether the model is currently cached.
func (p *Provider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// Reset drops the cached model. The next embedding call loads it again.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.model = nil
	return nil
}

// infer runs fn against the loaded model while holding the provider lock.
func (p *Provider) infer(ctx context.Context, fn func(*model)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%w: %w", ai.ErrEmbedding, ai.ErrProviderClosed)
	}
	if p.model == nil {
		m, err := p.load(p.config)
		if err != nil {
			p.logger.Error("failed to load embedding model", "err", err)
			return fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
		}
		p.logger.Debug("embedding model loaded", "dimensions", p.config.Dimensions)
		p.model = m
	}

	fn(p.model)
	return nil
}

// Embedder is the ai.Embedder view of a local Provider.
type Embedder struct {
	provider *Provider
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	if err := e.provider.infer(ctx, func(m *model) {
		vec = m.embed(text)
	}); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	if err := e.provider.infer(ctx, func(m *model) {
		for i, text := range texts {
			vecs[i] = m.embed(text)
		}
	}); err != nil {
		return nil, err
	}
	return vecs, nil
}

var (
	defaultMu       sync.Mutex
	defaultProvider *Provider
)

// Default returns the process-wide local provider, creating it with
// ai.DefaultConfig on first use.
func Default() *Provider {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultProvider == nil {
		// DefaultConfig always validates for the local backend
		p, _ := NewProvider(ai.DefaultConfig())
		defaultProvider = p
	}
	return defaultProvider
}

// ResetDefault discards the process-wide provider. Tests call it during
// teardown so each test starts with an unloaded model.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultProvider != nil {
		_ = defaultProvider.Close()
	}
	defaultProvider = nil
}

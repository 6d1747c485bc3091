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


package openai

import (
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/recipesearch/ai"
)

// Provider implements ai.AIProvider using an OpenAI-compatible API.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	closed   atomic.Bool
	logger   *slog.Logger
}

// NewProvider creates a provider backed by config.EmbeddingHost.
// Returns an error if the configuration is invalid.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	cfg := remoteConfig(config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   cfg,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close releases resources. Later embedding calls fail with ai.ErrProviderClosed.
func (p *Provider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.embedder.closed.Store(true)
	p.logger.Debug("closing OpenAI provider", "host", p.config.EmbeddingHost)
	return nil
}

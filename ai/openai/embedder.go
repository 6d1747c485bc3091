package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/poiesic/recipesearch/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder generates embeddings against an OpenAI-compatible API using langchaingo.
// Transient failures are retried with exponential backoff; rejected requests
// fail on the first attempt.
type Embedder struct {
	embedder embeddings.Embedder
	retry    ai.RetryPolicy
	closed   atomic.Bool
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token
	token := config.Token
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}

	logger := slog.Default().With("component", "openai-embedder")
	retry := ai.NewRetryPolicy(config, logger)
	retry.Retryable = transient

	return &Embedder{
		embedder: embedder,
		retry:    retry,
		logger:   logger,
	}, nil
}

// transient reports whether a langchaingo failure may clear up on its own:
// rate limiting, timeouts, an unavailable service or an unclassified error.
// Rejected credentials, requests or models are not.
func transient(err error) bool {
	var llmErr *llms.Error
	if !errors.As(openai.MapError(err), &llmErr) {
		return true
	}
	switch llmErr.Code {
	case llms.ErrCodeAuthentication,
		llms.ErrCodeInvalidRequest,
		llms.ErrCodeResourceNotFound,
		llms.ErrCodeQuotaExceeded,
		llms.ErrCodeContentFilter,
		llms.ErrCodeTokenLimit,
		llms.ErrCodeNotImplemented:
		return false
	}
	return true
}

// NewEmbedder creates an embedder for config.EmbeddingHost.
// The config's Backend is ignored; the host and model fields are required.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(remoteConfig(config))
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ai.ErrEmbedding)
	}

	e.logger.Debug("generating embedding for single text", "length", len(text))

	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, fmt.Errorf("%w: empty response", ai.ErrEmbedding)
	}

	return vecs[0], nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ai.ErrEmbedding, len(vecs), len(texts))
	}

	return vecs, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		if e.closed.Load() {
			return ai.ErrProviderClosed
		}
		var err error
		vecs, err = e.embedder.EmbedDocuments(ctx, texts)
		return err
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}
	return vecs, nil
}

func remoteConfig(config *ai.Config) *ai.Config {
	cfg := *config
	cfg.Backend = ai.BackendOpenAI
	return &cfg
}

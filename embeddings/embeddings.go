// Package embeddings turns text into fixed-dimension vectors.
package embeddings

import (
	"context"
	"fmt"

	"github.com/Nm02/Asistente-Academico-IITA/config"
)

// Embedder generates one vector per input text, order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the OpenAI-backed embedder from configuration.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return newOpenAIEmbedder(cfg), nil
}

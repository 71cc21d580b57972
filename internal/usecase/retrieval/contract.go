package retrieval

import (
	"context"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
)

// Matcher runs a similarity search for a query vector against one corpus.
type Matcher interface {
	Match(ctx context.Context, c corpus.Corpus, vector []float32, filters map[string]string) ([]retrieval.Fragment, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

package domain

import "errors"

// Sentinel errors for the retrieval core.
var (
	// ErrEmbeddingUnavailable signals a failed or timed out embedding call.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrRetrievalUnavailable signals a failed or timed out vector store call.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable signals a failed or timed out generative model call.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrRerankParse signals structurally invalid reranker model output.
	ErrRerankParse = errors.New("rerank response not parseable")
	// ErrCorpusNotFound signals an unknown corpus identifier.
	ErrCorpusNotFound = errors.New("corpus not found")
	// ErrEmptyQuery signals a missing query text.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidArgument signals a caller error outside the other sentinels.
	ErrInvalidArgument = errors.New("invalid argument")
)

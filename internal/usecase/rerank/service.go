// Package rerank selects the most relevant candidates for a criteria by
// asking a generative model to score a numbered list, with a deterministic
// fallback when the model output cannot be used.
package rerank

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/logger"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
)

// fallbackRelevance is the placeholder score assigned when the model
// response was unusable and selection fell back to input order.
const fallbackRelevance = 50

const fallbackJustification = "Selección automática por orden de entrada; la respuesta del modelo no pudo interpretarse."

// Options bound a rerank invocation.
type Options struct {
	MaxCandidates int
	Timeout       time.Duration
}

// Service reranks candidates with a single generative-model call.
type Service struct {
	gen  Generator
	opts Options
}

func New(gen Generator, opts Options) *Service {
	return &Service{gen: gen, opts: opts}
}

// Rerank asks the model for the k most relevant candidates. One model call,
// no retries: an unusable response (call failure or unparsable output)
// degrades to the first k candidates in input order with placeholder
// relevance, and the outcome is tagged as a fallback.
func (s *Service) Rerank(ctx context.Context, candidates []rerank.Candidate, criteria string, k int) (rerank.Outcome, error) {
	log := logger.FromContext(ctx)

	if len(candidates) == 0 {
		return rerank.NewOutcome(nil), nil
	}
	if s.opts.MaxCandidates > 0 && len(candidates) > s.opts.MaxCandidates {
		return rerank.Outcome{}, fmt.Errorf("%w: %d candidates exceeds limit of %d",
			domain.ErrInvalidArgument, len(candidates), s.opts.MaxCandidates)
	}
	if k <= 0 {
		return rerank.Outcome{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	gctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.gen.Generate(gctx, buildSystemPrompt(k), buildUserPrompt(candidates, criteria))
	if err != nil {
		log.Warn("rerank model call failed, using fallback selection", zap.Error(err))
		return s.fallback(candidates, k), nil
	}

	selections, err := parseSelections(raw, candidates, k)
	if err != nil {
		log.Warn("rerank response unusable, using fallback selection",
			zap.Error(err),
			zap.Int("response_len", len(raw)))
		return s.fallback(candidates, k), nil
	}

	metrics.RerankRequestsTotal.WithLabelValues("parsed").Inc()
	return rerank.NewOutcome(selections), nil
}

// fallback selects the first k candidates in input order.
func (s *Service) fallback(candidates []rerank.Candidate, k int) rerank.Outcome {
	metrics.RerankRequestsTotal.WithLabelValues("fallback").Inc()

	selections := make([]rerank.Selection, 0, k)
	for i := 0; i < k; i++ {
		selections = append(selections, rerank.NewSelection(candidates[i], i+1, fallbackRelevance, fallbackJustification))
	}
	return rerank.NewFallbackOutcome(selections)
}

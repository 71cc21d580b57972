// Package retrieval orchestrates context building: embed the query, match
// it against one or more corpora, aggregate fragment evidence into sources,
// and assemble the prompt-ready context block.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/logger"
)

// Options bound the shape and latency of context building.
type Options struct {
	MaxSources      int
	SnippetMaxChars int
	EmbedTimeout    time.Duration
	MatchTimeout    time.Duration
}

// Service builds grounding context for generation requests.
type Service struct {
	embed   Embedder
	matcher Matcher
	corpora map[string]corpus.Corpus
	opts    Options
}

// New creates a retrieval service. corpora maps corpus id to its
// configured index, threshold, and limit.
func New(embed Embedder, matcher Matcher, corpora map[string]corpus.Corpus, opts Options) *Service {
	return &Service{embed: embed, matcher: matcher, corpora: corpora, opts: opts}
}

// BuildContext embeds the query, fans out a match per corpus, and assembles
// the results. Embedding and retrieval failures degrade to the fallback
// block; they never fail the request. Unknown corpus ids and empty queries
// are caller errors and are returned as such.
func (s *Service) BuildContext(ctx context.Context, queryText string, corpusIDs []string, filters map[string]string) (retrieval.ContextBlock, error) {
	log := logger.FromContext(ctx)

	query, err := retrieval.NewQuery(queryText, filters)
	if err != nil {
		return retrieval.ContextBlock{}, err
	}

	corpora := make([]corpus.Corpus, 0, len(corpusIDs))
	for _, id := range corpusIDs {
		c, ok := s.corpora[id]
		if !ok {
			return retrieval.ContextBlock{}, fmt.Errorf("corpus %q: %w", id, domain.ErrCorpusNotFound)
		}
		corpora = append(corpora, c)
	}

	vector, ok := s.embedQuery(ctx, log, query)
	if !ok {
		return assemble(nil), nil
	}

	type matchResult struct {
		idx       int
		fragments []retrieval.Fragment
	}
	results := make(chan matchResult, len(corpora))

	for i, c := range corpora {
		go func(idx int, c corpus.Corpus) {
			mctx, cancel := context.WithTimeout(ctx, s.opts.MatchTimeout)
			defer cancel()

			fragments, err := s.matcher.Match(mctx, c, vector, query.Filters())
			if err != nil {
				log.Warn("corpus match failed, degrading",
					zap.String("corpus", c.Name()),
					zap.Error(err))
				fragments = nil
			}
			results <- matchResult{idx: idx, fragments: fragments}
		}(i, c)
	}

	byCorpus := make([][]retrieval.Fragment, len(corpora))
	for range corpora {
		r := <-results
		byCorpus[r.idx] = r.fragments
	}

	// Aggregation is per corpus; scores from different corpora are never
	// ranked against each other.
	var sources []retrieval.AggregatedSource
	for _, fragments := range byCorpus {
		sources = append(sources, aggregate(fragments, s.opts.MaxSources, s.opts.SnippetMaxChars)...)
	}

	return assemble(sources), nil
}

func (s *Service) embedQuery(ctx context.Context, log *zap.Logger, query retrieval.Query) ([]float32, bool) {
	ectx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	defer cancel()

	result, err := s.embed.Embed(ectx, query.Text())
	if err != nil {
		log.Warn("query embedding failed, degrading to fallback context", zap.Error(err))
		return nil, false
	}
	return result.Embedding, true
}

// Package fragments retrieves scored content fragments from the vector
// store via KNN search against a corpus index.
package fragments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/db"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
)

// Stored hash fields returned from the index.
const (
	fieldDocID   = "doc_id"
	fieldTitle   = "title"
	fieldPage    = "page"
	fieldContent = "content"
)

// Repository matches query vectors against corpus indexes.
type Repository struct {
	store  db.Searcher
	logger *zap.Logger
}

func NewRepository(store db.Searcher, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, logger: logger}
}

// Match runs a KNN search for vector against the corpus index and returns
// fragments whose similarity meets the corpus threshold, best first.
func (r *Repository) Match(ctx context.Context, c corpus.Corpus, vector []float32, filters map[string]string) ([]retrieval.Fragment, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    c.Index(),
		Vector:       vector,
		K:            c.Limit(),
		Tags:         filters,
		ReturnFields: []string{fieldDocID, fieldTitle, fieldPage, fieldContent},
	})
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(c.Name(), "error").Inc()
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("corpus %q: %w", c.Name(), domain.ErrCorpusNotFound)
		}
		return nil, fmt.Errorf("knn search on %q: %v: %w", c.Index(), err, domain.ErrRetrievalUnavailable)
	}

	fragments := make([]retrieval.Fragment, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.Score < c.Threshold() {
			continue
		}
		frag, err := r.toFragment(entry, c.Name())
		if err != nil {
			r.logger.Warn("skipping malformed fragment",
				zap.String("key", entry.Key),
				zap.String("corpus", c.Name()),
				zap.Error(err))
			continue
		}
		fragments = append(fragments, frag)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(c.Name(), "success").Inc()
	metrics.RetrievalFragmentsReturned.WithLabelValues(c.Name()).Observe(float64(len(fragments)))

	return fragments, nil
}

func (r *Repository) toFragment(entry db.SearchEntry, corpusName string) (retrieval.Fragment, error) {
	docID := entry.Fields[fieldDocID]
	if docID == "" {
		return retrieval.Fragment{}, fmt.Errorf("entry %q missing %s field", entry.Key, fieldDocID)
	}
	title := entry.Fields[fieldTitle]
	content := entry.Fields[fieldContent]

	if raw, ok := entry.Fields[fieldPage]; ok && raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			// A bad page only costs the locator; the text still counts.
			r.logger.Warn("invalid page locator, keeping fragment without it",
				zap.String("key", entry.Key),
				zap.String("corpus", corpusName),
				zap.String("page", raw))
			return retrieval.NewFragmentNoLocator(entry.Key, docID, title, content, entry.Score, corpusName), nil
		}
		return retrieval.NewFragment(entry.Key, docID, title, page, content, entry.Score, corpusName), nil
	}

	return retrieval.NewFragmentNoLocator(entry.Key, docID, title, content, entry.Score, corpusName), nil
}

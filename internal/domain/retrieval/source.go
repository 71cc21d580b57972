package retrieval

// AggregatedSource is one cited document derived from its matched fragments:
// compressed locator range, bounded snippet and the best fragment similarity.
// Derived per query, never persisted.
type AggregatedSource struct {
	documentID string
	title      string
	locators   string
	snippet    string
	similarity float64
	corpus     string
}

// NewAggregatedSource creates an aggregated source.
func NewAggregatedSource(documentID, title, locators, snippet string, similarity float64, corpus string) AggregatedSource {
	return AggregatedSource{
		documentID: documentID,
		title:      title,
		locators:   locators,
		snippet:    snippet,
		similarity: similarity,
		corpus:     corpus,
	}
}

// DocumentID returns the source document identifier.
func (s *AggregatedSource) DocumentID() string { return s.documentID }

// Title returns the source document title.
func (s *AggregatedSource) Title() string { return s.title }

// Locators returns the compressed locator range string, e.g. "12-14, 20".
// Empty when every fragment locator was missing or malformed.
func (s *AggregatedSource) Locators() string { return s.locators }

// Snippet returns the concatenated, hard-capped fragment text.
func (s *AggregatedSource) Snippet() string { return s.snippet }

// Similarity returns the best fragment similarity within the source.
func (s *AggregatedSource) Similarity() float64 { return s.similarity }

// Corpus returns the corpus tag.
func (s *AggregatedSource) Corpus() string { return s.corpus }

// Package corpus describes named collections of pre-embedded content fragments.
package corpus

import "fmt"

// Threshold operating bounds. Thresholds differ by corpus (documentation
// tolerates looser matches than legal protocol text) and stay configuration,
// not constants.
const (
	MinThreshold = 0.0
	MaxThreshold = 1.0

	DefaultLimit = 10
	MaxLimit     = 50
)

// Corpus is a named, pre-ingested fragment collection with its retrieval
// operating point.
type Corpus struct {
	name      string
	index     string
	threshold float64
	limit     int
}

// New validates and creates a corpus descriptor.
// index is the FT.SEARCH index name the corpus fragments are ingested under.
func New(name, index string, threshold float64, limit int) (Corpus, error) {
	if name == "" {
		return Corpus{}, fmt.Errorf("corpus name is required")
	}
	if index == "" {
		return Corpus{}, fmt.Errorf("corpus %q: index is required", name)
	}
	if threshold < MinThreshold || threshold > MaxThreshold {
		return Corpus{}, fmt.Errorf("corpus %q: threshold must be in [0, 1], got %g", name, threshold)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Corpus{name: name, index: index, threshold: threshold, limit: limit}, nil
}

// Name returns the corpus identifier.
func (c *Corpus) Name() string { return c.name }

// Index returns the backing search index name.
func (c *Corpus) Index() string { return c.index }

// Threshold returns the similarity cutoff below which fragments are discarded.
func (c *Corpus) Threshold() float64 { return c.threshold }

// Limit returns the fragment result cap for a single match call.
func (c *Corpus) Limit() int { return c.limit }

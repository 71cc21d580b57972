// Package rerank holds the entities of the second-pass model selection:
// candidates rendered into a numbered prompt list and the selections parsed
// back out of the model response.
package rerank

// Candidate is a structured record eligible for reranking, e.g. a curriculum
// standard fetched by exact filters. Ordinal position in the prompt list is
// implied by slice order (1-based).
type Candidate struct {
	id       string
	text     string
	category string
}

// NewCandidate creates a candidate.
func NewCandidate(id, text, category string) Candidate {
	return Candidate{id: id, text: text, category: category}
}

// ID returns the candidate record identifier.
func (c *Candidate) ID() string { return c.id }

// Text returns the display text shown to the reranking model.
func (c *Candidate) Text() string { return c.text }

// Category returns the category tag used for selection diversity.
func (c *Candidate) Category() string { return c.category }

package rerank

// Selection is one reranker pick mapped back to its candidate: the 1-based
// prompt ordinal, an assigned relevance score (0-100) and the model's
// justification.
type Selection struct {
	candidate     Candidate
	ordinal       int
	relevance     int
	justification string
}

// NewSelection creates a selection.
func NewSelection(candidate Candidate, ordinal, relevance int, justification string) Selection {
	return Selection{
		candidate:     candidate,
		ordinal:       ordinal,
		relevance:     relevance,
		justification: justification,
	}
}

// Candidate returns the resolved candidate record.
func (s *Selection) Candidate() Candidate { return s.candidate }

// Ordinal returns the 1-based position the candidate held in the prompt list.
func (s *Selection) Ordinal() int { return s.ordinal }

// Relevance returns the assigned relevance score (0-100).
func (s *Selection) Relevance() int { return s.relevance }

// Justification returns the model's stated reason for the pick.
func (s *Selection) Justification() string { return s.justification }

// Outcome is the tagged rerank result: either selections parsed from the
// model response, or the deterministic fallback when the response could not
// be used.
type Outcome struct {
	selections []Selection
	fellBack   bool
}

// NewOutcome creates a parsed outcome.
func NewOutcome(selections []Selection) Outcome {
	return Outcome{selections: selections}
}

// NewFallbackOutcome creates a fallback outcome.
func NewFallbackOutcome(selections []Selection) Outcome {
	return Outcome{selections: selections, fellBack: true}
}

// Selections returns the selections in model order (fallback: original order).
func (o *Outcome) Selections() []Selection { return o.selections }

// FellBack reports whether the deterministic fallback was applied.
func (o *Outcome) FellBack() bool { return o.fellBack }

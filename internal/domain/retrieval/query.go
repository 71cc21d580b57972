// Package retrieval holds the request-scoped entities of the context-assembly
// pipeline: queries, matched fragments, aggregated sources and context blocks.
// None of them are persisted; everything lives for a single request.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
)

// MaxQueryLength is the maximum allowed query text length. Longer inputs must
// be truncated by the caller; the embedder does not chunk.
const MaxQueryLength = 4096

// Query is a validated free-text retrieval query with optional scope filters.
type Query struct {
	text    string
	filters map[string]string
}

// NewQuery validates and normalizes a query. filters narrow vector search by
// exact-match metadata (grade level, subject, module) and may be nil.
func NewQuery(text string, filters map[string]string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, domain.ErrEmptyQuery
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidArgument, MaxQueryLength)
	}
	return Query{text: text, filters: filters}, nil
}

// Text returns the query text.
func (q *Query) Text() string { return q.text }

// Filters returns the exact-match scope filters (nil when unscoped).
func (q *Query) Filters() map[string]string { return q.filters }

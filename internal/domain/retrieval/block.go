package retrieval

// ContextBlock is the final grounding evidence injected into a generation
// prompt: the capped, ranked source list plus its rendered text form. When no
// source cleared the threshold the block carries only the fallback sentence.
type ContextBlock struct {
	sources []AggregatedSource
	text    string
}

// NewContextBlock creates a context block.
func NewContextBlock(sources []AggregatedSource, text string) ContextBlock {
	return ContextBlock{sources: sources, text: text}
}

// Sources returns the aggregated sources in rank order (may be empty).
func (b *ContextBlock) Sources() []AggregatedSource { return b.sources }

// Text returns the rendered block ready for verbatim prompt embedding.
func (b *ContextBlock) Text() string { return b.text }

// Empty reports whether retrieval produced no usable sources.
func (b *ContextBlock) Empty() bool { return len(b.sources) == 0 }

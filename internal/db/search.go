package db

// KNNQuery is the input for vector similarity search.
// Tags are exact-match metadata pre-filters (field name -> value) applied
// before KNN ranking.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Tags         map[string]string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

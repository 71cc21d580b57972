package retrieval

// Fragment is the smallest retrievable content unit returned by the vector
// matcher. Immutable once constructed.
type Fragment struct {
	id         string
	documentID string
	title      string
	page       int
	hasPage    bool
	text       string
	similarity float64
	corpus     string
}

// NewFragment creates a fragment with a page locator.
func NewFragment(id, documentID, title string, page int, text string, similarity float64, corpus string) Fragment {
	return Fragment{
		id:         id,
		documentID: documentID,
		title:      title,
		page:       page,
		hasPage:    true,
		text:       text,
		similarity: similarity,
		corpus:     corpus,
	}
}

// NewFragmentNoLocator creates a fragment whose locator is missing or
// malformed. It still contributes text and score to aggregation, only the
// locator range omits it.
func NewFragmentNoLocator(id, documentID, title, text string, similarity float64, corpus string) Fragment {
	return Fragment{
		id:         id,
		documentID: documentID,
		title:      title,
		text:       text,
		similarity: similarity,
		corpus:     corpus,
	}
}

// ID returns the fragment identifier.
func (f *Fragment) ID() string { return f.id }

// DocumentID returns the owning document identifier.
func (f *Fragment) DocumentID() string { return f.documentID }

// Title returns the owning document title.
func (f *Fragment) Title() string { return f.title }

// Page returns the page locator and whether it is present.
func (f *Fragment) Page() (int, bool) { return f.page, f.hasPage }

// Text returns the fragment content.
func (f *Fragment) Text() string { return f.text }

// Similarity returns the similarity score in [0, 1].
func (f *Fragment) Similarity() float64 { return f.similarity }

// Corpus returns the corpus tag the fragment was retrieved from.
func (f *Fragment) Corpus() string { return f.corpus }

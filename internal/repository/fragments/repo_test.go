package fragments

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/db"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

type fakeSearcher struct {
	result *db.SearchResult
	err    error
	lastQ  db.KNNQuery
}

func (f *fakeSearcher) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.lastQ = *q
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testCorpus(t *testing.T, threshold float64) corpus.Corpus {
	t.Helper()
	c, err := corpus.New("docs", "idx:docs", threshold, 10)
	if err != nil {
		t.Fatalf("corpus.New failed: %v", err)
	}
	return c
}

func TestRepository_Match(t *testing.T) {
	searcher := &fakeSearcher{
		result: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:   "frag:docs:1",
					Score: 0.9,
					Fields: map[string]string{
						"doc_id":  "doc-a",
						"title":   "Fracciones",
						"page":    "4",
						"content": "Las fracciones representan partes de un todo.",
					},
				},
				{
					Key:   "frag:docs:2",
					Score: 0.7,
					Fields: map[string]string{
						"doc_id":  "doc-b",
						"title":   "Decimales",
						"content": "Los decimales extienden el sistema posicional.",
					},
				},
			},
		},
	}

	repo := NewRepository(searcher, nil)
	frags, err := repo.Match(context.Background(), testCorpus(t, 0.5), []float32{0.1, 0.2}, map[string]string{"grade": "3"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if frags[0].DocumentID() != "doc-a" {
		t.Errorf("expected doc-a, got %s", frags[0].DocumentID())
	}
	if page, ok := frags[0].Page(); !ok || page != 4 {
		t.Errorf("expected page 4, got %d (ok=%v)", page, ok)
	}
	if _, ok := frags[1].Page(); ok {
		t.Error("expected second fragment to have no page")
	}
	if frags[1].Similarity() != 0.7 {
		t.Errorf("expected similarity 0.7, got %f", frags[1].Similarity())
	}

	if searcher.lastQ.IndexName != "idx:docs" {
		t.Errorf("unexpected index: %s", searcher.lastQ.IndexName)
	}
	if searcher.lastQ.K != 10 {
		t.Errorf("unexpected k: %d", searcher.lastQ.K)
	}
	if searcher.lastQ.Tags["grade"] != "3" {
		t.Errorf("filters not passed through: %v", searcher.lastQ.Tags)
	}
}

func TestRepository_Match_ThresholdCut(t *testing.T) {
	searcher := &fakeSearcher{
		result: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "frag:docs:1", Score: 0.8, Fields: map[string]string{"doc_id": "doc-a", "content": "a"}},
				{Key: "frag:docs:2", Score: 0.4, Fields: map[string]string{"doc_id": "doc-b", "content": "b"}},
			},
		},
	}

	repo := NewRepository(searcher, nil)
	frags, err := repo.Match(context.Background(), testCorpus(t, 0.6), []float32{0.1}, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment above threshold, got %d", len(frags))
	}
	if frags[0].DocumentID() != "doc-a" {
		t.Errorf("wrong fragment survived: %s", frags[0].DocumentID())
	}
}

func TestRepository_Match_SkipsMalformed(t *testing.T) {
	searcher := &fakeSearcher{
		result: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "frag:docs:1", Score: 0.8, Fields: map[string]string{"content": "no doc id"}},
				{Key: "frag:docs:3", Score: 0.8, Fields: map[string]string{"doc_id": "doc-c", "content": "c"}},
			},
		},
	}

	repo := NewRepository(searcher, nil)
	frags, err := repo.Match(context.Background(), testCorpus(t, 0.5), []float32{0.1}, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 valid fragment, got %d", len(frags))
	}
	if frags[0].DocumentID() != "doc-c" {
		t.Errorf("expected doc-c, got %s", frags[0].DocumentID())
	}
}

func TestRepository_Match_BadPageKeepsFragment(t *testing.T) {
	searcher := &fakeSearcher{
		result: &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "frag:docs:2", Score: 0.9, Fields: map[string]string{"doc_id": "doc-b", "page": "iv", "content": "b"}},
			},
		},
	}

	repo := NewRepository(searcher, nil)
	frags, err := repo.Match(context.Background(), testCorpus(t, 0.5), []float32{0.1}, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected the fragment to survive, got %d", len(frags))
	}
	if frags[0].DocumentID() != "doc-b" {
		t.Errorf("expected doc-b, got %s", frags[0].DocumentID())
	}
	if _, ok := frags[0].Page(); ok {
		t.Error("expected no page locator on unparsable page")
	}
	if frags[0].Similarity() != 0.9 {
		t.Errorf("similarity lost: %g", frags[0].Similarity())
	}
}

func TestRepository_Match_IndexNotFound(t *testing.T) {
	searcher := &fakeSearcher{err: db.ErrIndexNotFound}
	repo := NewRepository(searcher, nil)

	_, err := repo.Match(context.Background(), testCorpus(t, 0.5), []float32{0.1}, nil)
	if !errors.Is(err, domain.ErrCorpusNotFound) {
		t.Errorf("expected ErrCorpusNotFound, got %v", err)
	}
}

func TestRepository_Match_StoreError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	repo := NewRepository(searcher, nil)

	_, err := repo.Match(context.Background(), testCorpus(t, 0.5), []float32{0.1}, nil)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

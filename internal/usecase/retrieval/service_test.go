package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vector}, nil
}

type stubMatcher struct {
	byCorpus map[string][]retrieval.Fragment
	err      error
	filters  map[string]string
}

func (s *stubMatcher) Match(_ context.Context, c corpus.Corpus, _ []float32, filters map[string]string) ([]retrieval.Fragment, error) {
	s.filters = filters
	if s.err != nil {
		return nil, s.err
	}
	return s.byCorpus[c.Name()], nil
}

func testOpts() Options {
	return Options{
		MaxSources:      3,
		SnippetMaxChars: 300,
		EmbedTimeout:    time.Second,
		MatchTimeout:    time.Second,
	}
}

func testCorpora(t *testing.T) map[string]corpus.Corpus {
	t.Helper()
	docs, err := corpus.New("docs", "idx:docs", 0.7, 10)
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	curriculum, err := corpus.New("curriculum", "idx:curriculum", 0.6, 10)
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	return map[string]corpus.Corpus{"docs": docs, "curriculum": curriculum}
}

func TestBuildContext_EndToEnd(t *testing.T) {
	matcher := &stubMatcher{byCorpus: map[string][]retrieval.Fragment{
		"docs": {
			retrieval.NewFragment("f1", "A", "Documento A", 4, "fragmento cuatro", 0.81, "docs"),
			retrieval.NewFragment("f2", "A", "Documento A", 5, "fragmento cinco", 0.77, "docs"),
			retrieval.NewFragment("f3", "B", "Documento B", 9, "fragmento nueve", 0.9, "docs"),
		},
	}}
	svc := New(&stubEmbedder{vector: []float32{0.1}}, matcher, testCorpora(t), testOpts())

	block, err := svc.BuildContext(context.Background(), "¿qué es una fracción?", []string{"docs"}, map[string]string{"grade": "3"})
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	sources := block.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].DocumentID() != "B" || sources[0].Locators() != "9" {
		t.Errorf("first source = %s (%s)", sources[0].DocumentID(), sources[0].Locators())
	}
	if sources[1].DocumentID() != "A" || sources[1].Locators() != "4-5" {
		t.Errorf("second source = %s (%s)", sources[1].DocumentID(), sources[1].Locators())
	}
	if matcher.filters["grade"] != "3" {
		t.Errorf("filters not forwarded: %v", matcher.filters)
	}
}

func TestBuildContext_EmptyMatchesYieldFallback(t *testing.T) {
	svc := New(&stubEmbedder{vector: []float32{0.1}}, &stubMatcher{}, testCorpora(t), testOpts())

	block, err := svc.BuildContext(context.Background(), "consulta", []string{"docs"}, nil)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}
	if block.Text() != FallbackText {
		t.Errorf("expected fallback text, got %q", block.Text())
	}
}

func TestBuildContext_EmbedFailureDegrades(t *testing.T) {
	svc := New(&stubEmbedder{err: domain.ErrEmbeddingUnavailable}, &stubMatcher{}, testCorpora(t), testOpts())

	block, err := svc.BuildContext(context.Background(), "consulta", []string{"docs"}, nil)
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if block.Text() != FallbackText {
		t.Errorf("expected fallback text, got %q", block.Text())
	}
}

func TestBuildContext_MatchFailureDegrades(t *testing.T) {
	matcher := &stubMatcher{err: domain.ErrRetrievalUnavailable}
	svc := New(&stubEmbedder{vector: []float32{0.1}}, matcher, testCorpora(t), testOpts())

	block, err := svc.BuildContext(context.Background(), "consulta", []string{"docs"}, nil)
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if block.Text() != FallbackText {
		t.Errorf("expected fallback text, got %q", block.Text())
	}
}

func TestBuildContext_MultiCorpusKeepsRequestOrder(t *testing.T) {
	matcher := &stubMatcher{byCorpus: map[string][]retrieval.Fragment{
		"docs": {
			retrieval.NewFragment("f1", "A", "A", 1, "a", 0.71, "docs"),
		},
		"curriculum": {
			retrieval.NewFragment("f2", "B", "B", 1, "b", 0.99, "curriculum"),
		},
	}}
	svc := New(&stubEmbedder{vector: []float32{0.1}}, matcher, testCorpora(t), testOpts())

	block, err := svc.BuildContext(context.Background(), "consulta", []string{"docs", "curriculum"}, nil)
	if err != nil {
		t.Fatalf("BuildContext failed: %v", err)
	}

	sources := block.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	// Corpora are not rank-normalized against each other: request order wins.
	if sources[0].Corpus() != "docs" || sources[1].Corpus() != "curriculum" {
		t.Errorf("corpus order = %s, %s", sources[0].Corpus(), sources[1].Corpus())
	}
}

func TestBuildContext_UnknownCorpus(t *testing.T) {
	svc := New(&stubEmbedder{vector: []float32{0.1}}, &stubMatcher{}, testCorpora(t), testOpts())

	_, err := svc.BuildContext(context.Background(), "consulta", []string{"nope"}, nil)
	if !errors.Is(err, domain.ErrCorpusNotFound) {
		t.Errorf("expected ErrCorpusNotFound, got %v", err)
	}
}

func TestBuildContext_EmptyQuery(t *testing.T) {
	svc := New(&stubEmbedder{vector: []float32{0.1}}, &stubMatcher{}, testCorpora(t), testOpts())

	_, err := svc.BuildContext(context.Background(), "   ", []string{"docs"}, nil)
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

package rerank

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testCandidates() []rerank.Candidate {
	return []rerank.Candidate{
		rerank.NewCandidate("c1", "Suma de fracciones con igual denominador", "matemáticas"),
		rerank.NewCandidate("c2", "El ciclo del agua", "ciencias"),
		rerank.NewCandidate("c3", "Lectura de comprensión: fábulas", "español"),
		rerank.NewCandidate("c4", "Multiplicación por dos cifras", "matemáticas"),
	}
}

func testOpts() Options {
	return Options{MaxCandidates: 200, Timeout: time.Second}
}

const validResponse = `{"selecciones": [
	{"numero": 3, "relevancia": 92, "justificacion": "Coincide directamente con el criterio."},
	{"numero": 1, "relevancia": 70, "justificacion": "Relacionado parcialmente."}
]}`

func TestRerank_ParsesSelections(t *testing.T) {
	gen := &stubGenerator{response: validResponse}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "comprensión lectora", 2)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if outcome.FellBack() {
		t.Error("unexpected fallback")
	}

	selections := outcome.Selections()
	if len(selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selections))
	}
	first := selections[0].Candidate()
	if first.ID() != "c3" || selections[0].Ordinal() != 3 {
		t.Errorf("first selection = %s (ordinal %d)", first.ID(), selections[0].Ordinal())
	}
	if selections[0].Relevance() != 92 {
		t.Errorf("relevance = %d", selections[0].Relevance())
	}
	second := selections[1].Candidate()
	if second.ID() != "c1" {
		t.Errorf("second selection = %s", second.ID())
	}
}

func TestRerank_FencedAndUnfencedParseIdentically(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"

	for _, response := range []string{validResponse, fenced} {
		gen := &stubGenerator{response: response}
		svc := New(gen, testOpts())

		outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 2)
		if err != nil {
			t.Fatalf("Rerank failed: %v", err)
		}
		if outcome.FellBack() {
			t.Error("unexpected fallback")
		}
		selections := outcome.Selections()
		diverged := len(selections) != 2
		if !diverged {
			firstCand := selections[0].Candidate()
			diverged = firstCand.ID() != "c3"
		}
		if diverged {
			t.Errorf("parse diverged for %q", response[:20])
		}
	}
}

func TestRerank_UnparsableFallsBack(t *testing.T) {
	gen := &stubGenerator{response: "Lo siento, no puedo responder en JSON."}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 3)
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if !outcome.FellBack() {
		t.Fatal("expected fallback outcome")
	}

	selections := outcome.Selections()
	if len(selections) != 3 {
		t.Fatalf("expected exactly 3 selections, got %d", len(selections))
	}
	for i, sel := range selections {
		cand := sel.Candidate()
		if cand.ID() != testCandidates()[i].ID() {
			t.Errorf("selection %d = %s, want input order", i, cand.ID())
		}
		if sel.Ordinal() != i+1 {
			t.Errorf("ordinal %d = %d", i, sel.Ordinal())
		}
		if sel.Relevance() != fallbackRelevance {
			t.Errorf("relevance = %d, want %d", sel.Relevance(), fallbackRelevance)
		}
	}
}

func TestRerank_GeneratorErrorFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 2)
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if !outcome.FellBack() {
		t.Error("expected fallback outcome")
	}
	if len(outcome.Selections()) != 2 {
		t.Errorf("expected 2 selections, got %d", len(outcome.Selections()))
	}
}

func TestRerank_OutOfRangeAndDuplicatesDropped(t *testing.T) {
	gen := &stubGenerator{response: `{"selecciones": [
		{"numero": 9, "relevancia": 99, "justificacion": "fuera de rango"},
		{"numero": 2, "relevancia": 80, "justificacion": "válido"},
		{"numero": 2, "relevancia": 75, "justificacion": "duplicado"},
		{"numero": 0, "relevancia": 60, "justificacion": "fuera de rango"},
		{"numero": 4, "relevancia": 50, "justificacion": "válido"}
	]}`}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 3)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if outcome.FellBack() {
		t.Error("unexpected fallback")
	}

	selections := outcome.Selections()
	if len(selections) != 2 {
		t.Fatalf("expected 2 surviving selections, got %d", len(selections))
	}
	if selections[0].Ordinal() != 2 || selections[1].Ordinal() != 4 {
		t.Errorf("ordinals = %d, %d", selections[0].Ordinal(), selections[1].Ordinal())
	}
}

func TestRerank_ResultCappedAtK(t *testing.T) {
	gen := &stubGenerator{response: `{"selecciones": [
		{"numero": 1, "relevancia": 90, "justificacion": "a"},
		{"numero": 2, "relevancia": 85, "justificacion": "b"},
		{"numero": 3, "relevancia": 80, "justificacion": "c"}
	]}`}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 2)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if len(outcome.Selections()) != 2 {
		t.Errorf("expected 2 selections, got %d", len(outcome.Selections()))
	}
}

func TestRerank_PromptShape(t *testing.T) {
	gen := &stubGenerator{response: validResponse}
	svc := New(gen, testOpts())

	if _, err := svc.Rerank(context.Background(), testCandidates(), "fracciones para tercer grado", 2); err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}

	if !strings.Contains(gen.lastUser, "1. [matemáticas] Suma de fracciones con igual denominador") {
		t.Errorf("numbered list missing from user prompt:\n%s", gen.lastUser)
	}
	if !strings.Contains(gen.lastUser, "fracciones para tercer grado") {
		t.Errorf("criteria missing from user prompt:\n%s", gen.lastUser)
	}
	if !strings.Contains(gen.lastSystem, `"selecciones"`) {
		t.Errorf("JSON contract missing from system prompt:\n%s", gen.lastSystem)
	}
}

func TestRerank_EmptyCandidates(t *testing.T) {
	svc := New(&stubGenerator{}, testOpts())

	outcome, err := svc.Rerank(context.Background(), nil, "criterio", 3)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if len(outcome.Selections()) != 0 || outcome.FellBack() {
		t.Errorf("expected empty parsed outcome, got %d selections (fellBack=%v)", len(outcome.Selections()), outcome.FellBack())
	}
}

func TestRerank_KLargerThanCandidates(t *testing.T) {
	gen := &stubGenerator{response: "no json"}
	svc := New(gen, testOpts())

	outcome, err := svc.Rerank(context.Background(), testCandidates(), "criterio", 10)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if len(outcome.Selections()) != len(testCandidates()) {
		t.Errorf("expected %d selections, got %d", len(testCandidates()), len(outcome.Selections()))
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

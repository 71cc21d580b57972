// Package chi exposes the retrieval engine over HTTP: context building,
// candidate reranking, health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	domrerank "github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
	healthuc "github.com/EduplannerDev/Eduplanner-sub004/internal/usecase/health"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeCorpusNotFound   = "corpus_not_found"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes API requests to the retrieval and rerank services.
type Server struct {
	contexts ContextBuilder
	reranker Reranker
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(contexts ContextBuilder, reranker Reranker, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{contexts: contexts, reranker: reranker, health: health, logger: logger}
}

// Routes registers all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/context", s.BuildContext)
	r.Post("/v1/rerank", s.Rerank)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type contextRequest struct {
	Query   string            `json:"query"`
	Corpora []string          `json:"corpora"`
	Filters map[string]string `json:"filters,omitempty"`
}

type sourceResponse struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Pages      string  `json:"pages,omitempty"`
	Snippet    string  `json:"snippet"`
	Relevance  float64 `json:"relevance"`
	Corpus     string  `json:"corpus"`
}

type contextResponse struct {
	Text     string           `json:"text"`
	Sources  []sourceResponse `json:"sources"`
	Fallback bool             `json:"fallback"`
}

// BuildContext handles POST /v1/context.
func (s *Server) BuildContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Corpora) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "at least one corpus is required")
		return
	}

	block, err := s.contexts.BuildContext(r.Context(), req.Query, req.Corpora, req.Filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := make([]sourceResponse, 0, len(block.Sources()))
	for _, src := range block.Sources() {
		sources = append(sources, sourceResponse{
			DocumentID: src.DocumentID(),
			Title:      src.Title(),
			Pages:      src.Locators(),
			Snippet:    src.Snippet(),
			Relevance:  src.Similarity(),
			Corpus:     src.Corpus(),
		})
	}

	writeJSON(w, http.StatusOK, contextResponse{
		Text:     block.Text(),
		Sources:  sources,
		Fallback: block.Empty(),
	})
}

type candidateRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

type rerankRequest struct {
	Candidates []candidateRequest `json:"candidates"`
	Criteria   string             `json:"criteria"`
	K          int                `json:"k"`
}

type selectionResponse struct {
	ID            string `json:"id"`
	Ordinal       int    `json:"ordinal"`
	Relevance     int    `json:"relevance"`
	Justification string `json:"justification"`
}

type rerankResponse struct {
	Selections []selectionResponse `json:"selections"`
	Fallback   bool                `json:"fallback"`
}

// Rerank handles POST /v1/rerank.
func (s *Server) Rerank(w http.ResponseWriter, r *http.Request) {
	var req rerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.K <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "k must be positive")
		return
	}
	if req.Criteria == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "criteria is required")
		return
	}

	candidates := make([]domrerank.Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.ID == "" || c.Text == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "candidate id and text are required")
			return
		}
		candidates = append(candidates, domrerank.NewCandidate(c.ID, c.Text, c.Category))
	}

	outcome, err := s.reranker.Rerank(r.Context(), candidates, req.Criteria, req.K)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	selections := make([]selectionResponse, 0, len(outcome.Selections()))
	for _, sel := range outcome.Selections() {
		c := sel.Candidate()
		selections = append(selections, selectionResponse{
			ID:            c.ID(),
			Ordinal:       sel.Ordinal(),
			Relevance:     sel.Relevance(),
			Justification: sel.Justification(),
		})
	}

	writeJSON(w, http.StatusOK, rerankResponse{
		Selections: selections,
		Fallback:   outcome.FellBack(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrEmptyQuery.Error())
	case errors.Is(err, domain.ErrCorpusNotFound):
		writeError(w, http.StatusNotFound, codeCorpusNotFound, domain.ErrCorpusNotFound.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

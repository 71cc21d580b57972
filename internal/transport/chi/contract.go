package chi

import (
	"context"

	domretrieval "github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
	domrerank "github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
	healthuc "github.com/EduplannerDev/Eduplanner-sub004/internal/usecase/health"
)

// ContextBuilder builds a grounding context block for a query.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string, corpora []string, filters map[string]string) (domretrieval.ContextBlock, error)
}

// Reranker selects the k most relevant candidates for a criteria.
type Reranker interface {
	Rerank(ctx context.Context, candidates []domrerank.Candidate, criteria string, k int) (domrerank.Outcome, error)
}

// HealthChecker reports backend availability.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

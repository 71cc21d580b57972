package rerank

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
)

type selectionPayload struct {
	Selecciones []struct {
		Numero        int    `json:"numero"`
		Relevancia    int    `json:"relevancia"`
		Justificacion string `json:"justificacion"`
	} `json:"selecciones"`
}

// parseSelections decodes the model response into selections mapped back to
// their candidates. Markdown code fences are stripped first; models wrap
// JSON in them no matter how firmly the prompt forbids it. Out-of-range and
// duplicate candidate numbers are dropped, model order is preserved, and at
// most k selections are returned. A decode failure wraps
// domain.ErrRerankParse so the caller can apply its fallback.
func parseSelections(raw string, candidates []rerank.Candidate, k int) ([]rerank.Selection, error) {
	cleaned := stripFences(raw)

	var payload selectionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode selections: %v: %w", err, domain.ErrRerankParse)
	}
	if len(payload.Selecciones) == 0 {
		return nil, fmt.Errorf("no selections in response: %w", domain.ErrRerankParse)
	}

	seen := map[int]struct{}{}
	selections := make([]rerank.Selection, 0, k)
	for _, s := range payload.Selecciones {
		if len(selections) == k {
			break
		}
		if s.Numero < 1 || s.Numero > len(candidates) {
			continue
		}
		if _, dup := seen[s.Numero]; dup {
			continue
		}
		seen[s.Numero] = struct{}{}
		selections = append(selections, rerank.NewSelection(candidates[s.Numero-1], s.Numero, s.Relevancia, s.Justificacion))
	}

	if len(selections) == 0 {
		return nil, fmt.Errorf("all selections out of range: %w", domain.ErrRerankParse)
	}
	return selections, nil
}

// stripFences removes a surrounding Markdown code fence (```json ... ``` or
// bare ``` ... ```) if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

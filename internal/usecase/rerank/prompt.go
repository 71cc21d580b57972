package rerank

import (
	"fmt"
	"strings"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/rerank"
)

const systemPromptTemplate = `Eres un asistente que selecciona el contenido educativo más relevante.
Recibirás una lista numerada de candidatos y un criterio de selección.
Elige los %d candidatos más relevantes para el criterio, favoreciendo variedad de categorías cuando la relevancia sea comparable.

Responde ÚNICAMENTE con un objeto JSON, sin texto adicional, con esta forma exacta:
{"selecciones": [{"numero": <número del candidato>, "relevancia": <entero 0-100>, "justificacion": "<una frase>"}]}

El arreglo debe tener exactamente %d elementos, ordenados de mayor a menor relevancia.
Usa solo números que aparezcan en la lista y no repitas ninguno.`

// buildSystemPrompt fixes the response contract: strict JSON, exactly k
// selections, category diversity as a tie-breaker.
func buildSystemPrompt(k int) string {
	return fmt.Sprintf(systemPromptTemplate, k, k)
}

// buildUserPrompt renders the criteria and the 1-based numbered candidate
// list the model selects from.
func buildUserPrompt(candidates []rerank.Candidate, criteria string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Criterio de selección: %s\n\nCandidatos:\n", criteria)
	for i, c := range candidates {
		if c.Category() != "" {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, c.Category(), c.Text())
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Text())
		}
	}
	return b.String()
}

package retrieval

import (
	"fmt"
	"strings"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
)

// FallbackText is returned whenever retrieval produced no usable sources.
// Generation still proceeds; the downstream model is told it has no
// grounding for the query.
const FallbackText = "No se encontró material de apoyo específico para esta consulta. " +
	"No hay fuentes citables disponibles; responde desde conocimiento general e indícalo."

const citationInstruction = "Instrucción de citado: cuando uses información de una fuente, " +
	"cita su número entre corchetes al final de la oración correspondiente, por ejemplo [1]. " +
	"No inventes fuentes ni números fuera de la lista."

// assemble renders aggregated sources into a plain-text block with a stable
// layout that a generation prompt can embed verbatim. The citation
// instruction is rendered once, never per source.
func assemble(sources []retrieval.AggregatedSource) retrieval.ContextBlock {
	if len(sources) == 0 {
		return retrieval.NewContextBlock(nil, FallbackText)
	}

	var b strings.Builder
	b.WriteString("Material de apoyo recuperado:\n")
	for i, src := range sources {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, src.Title())
		if src.Locators() != "" {
			fmt.Fprintf(&b, " (págs. %s)", src.Locators())
		}
		fmt.Fprintf(&b, ", relevancia %.2f, corpus %s\n%s\n", src.Similarity(), src.Corpus(), src.Snippet())
	}
	b.WriteString("\n")
	b.WriteString(citationInstruction)

	return retrieval.NewContextBlock(sources, b.String())
}

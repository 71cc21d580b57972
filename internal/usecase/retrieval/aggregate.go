package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/retrieval"
)

// aggregate folds fragment-level matches into source-level evidence:
// one AggregatedSource per document, scored by its best fragment.
// Pure data transformation, no I/O.
func aggregate(fragments []retrieval.Fragment, maxSources, snippetMaxChars int) []retrieval.AggregatedSource {
	if len(fragments) == 0 {
		return nil
	}

	type group struct {
		title      string
		corpus     string
		pages      []int
		texts      []string
		similarity float64
	}

	groups := map[string]*group{}
	order := make([]string, 0, len(fragments))

	for _, frag := range fragments {
		g, ok := groups[frag.DocumentID()]
		if !ok {
			g = &group{title: frag.Title(), corpus: frag.Corpus()}
			groups[frag.DocumentID()] = g
			order = append(order, frag.DocumentID())
		}
		if g.title == "" {
			g.title = frag.Title()
		}
		if page, ok := frag.Page(); ok {
			g.pages = append(g.pages, page)
		}
		g.texts = append(g.texts, frag.Text())
		if frag.Similarity() > g.similarity {
			g.similarity = frag.Similarity()
		}
	}

	sources := make([]retrieval.AggregatedSource, 0, len(order))
	for _, docID := range order {
		g := groups[docID]
		snippet := truncateRunes(strings.Join(g.texts, " "), snippetMaxChars)
		sources = append(sources, retrieval.NewAggregatedSource(
			docID, g.title, compressLocators(g.pages), snippet, g.similarity, g.corpus))
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Similarity() > sources[j].Similarity()
	})

	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return sources
}

// compressLocators deduplicates and sorts page numbers, then folds runs of
// consecutive integers into ranges: [1,2,3,5,6] -> "1-3, 5-6".
func compressLocators(pages []int) string {
	if len(pages) == 0 {
		return ""
	}

	seen := map[int]struct{}{}
	unique := make([]int, 0, len(pages))
	for _, p := range pages {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Ints(unique)

	var b strings.Builder
	start, prev := unique[0], unique[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, p := range unique[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}

// truncateRunes hard-caps s at max runes. Not sentence-aware.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

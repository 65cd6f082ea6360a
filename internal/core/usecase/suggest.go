package usecase

import (
	"context"
	"fmt"
	"strings"
)

var legalTerms = []string{
	"governing law", "jurisdiction", "agreement type", "contract value",
	"effective date", "expiration date", "parties", "industry",
}

// Suggestions is the autocomplete payload for the query box.
type Suggestions struct {
	Suggestions    []string `json:"suggestions"`
	PopularQueries []string `json:"popular_queries"`
	LegalTerms     []string `json:"legal_terms"`
}

// Suggest proposes query completions from past queries and phrasing
// templates. Inputs shorter than two characters return an empty payload.
func (uc *QueryUseCase) Suggest(ctx context.Context, prefix string, limit int) (*Suggestions, error) {
	if limit <= 0 {
		limit = 5
	}
	out := &Suggestions{
		Suggestions:    []string{},
		PopularQueries: []string{},
		LegalTerms:     []string{},
	}
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < 2 {
		return out, nil
	}

	popular, err := uc.queryLog.PopularQueries(ctx, prefix, limit)
	if err != nil {
		uc.logger.Warn("popular query lookup failed", "error", err)
	} else {
		out.PopularQueries = popular
	}

	lower := strings.ToLower(prefix)
	switch {
	case strings.Contains(lower, "which"), strings.Contains(lower, "what"):
		out.Suggestions = append(out.Suggestions,
			fmt.Sprintf("Which agreements are governed by %s law?", prefix),
			fmt.Sprintf("What %s contracts do we have?", prefix),
			fmt.Sprintf("Show me all %s agreements", prefix),
		)
	case strings.Contains(lower, "show"), strings.Contains(lower, "list"):
		out.Suggestions = append(out.Suggestions,
			fmt.Sprintf("Show me all %s documents", prefix),
			fmt.Sprintf("List %s contracts", prefix),
			fmt.Sprintf("Find %s agreements", prefix),
		)
	default:
		out.Suggestions = append(out.Suggestions,
			fmt.Sprintf("Which agreements are governed by %s law?", prefix),
			fmt.Sprintf("Show me all %s contracts", prefix),
			fmt.Sprintf("Find %s agreements", prefix),
			fmt.Sprintf("What %s documents do we have?", prefix),
		)
	}
	if len(out.Suggestions) > limit {
		out.Suggestions = out.Suggestions[:limit]
	}

	out.LegalTerms = legalTerms
	return out, nil
}

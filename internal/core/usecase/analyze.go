package usecase

import (
	"strings"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

// analyzeQuestion derives metadata filters from a natural-language question.
// Matching is substring-based on the lowercased question; the first matching
// alternative per category wins.
func analyzeQuestion(question string) domain.QueryAnalysis {
	q := strings.ToLower(question)

	analysis := domain.QueryAnalysis{
		Filters:      map[string]string{},
		ReturnFields: []string{"document", "agreement_type", "governing_law"},
	}

	addFilter := func(field, value string) {
		analysis.FieldsNeeded = append(analysis.FieldsNeeded, field)
		analysis.Filters[field] = value
	}

	switch {
	case strings.Contains(q, "uae"), strings.Contains(q, "dubai"):
		addFilter("governing_law", "UAE")
	case strings.Contains(q, "uk"), strings.Contains(q, "english"):
		addFilter("governing_law", "UK")
	case strings.Contains(q, "delaware"):
		addFilter("governing_law", "Delaware")
	case strings.Contains(q, "new york"):
		addFilter("governing_law", "New York")
	case strings.Contains(q, "california"):
		addFilter("governing_law", "California")
	}

	switch {
	case strings.Contains(q, "nda"), strings.Contains(q, "non-disclosure"):
		addFilter("agreement_type", "NDA")
	case strings.Contains(q, "msa"), strings.Contains(q, "master service"):
		addFilter("agreement_type", "MSA")
	case strings.Contains(q, "franchise"):
		addFilter("agreement_type", "Franchise Agreement")
	case strings.Contains(q, "employment"):
		addFilter("agreement_type", "Employment Agreement")
	case strings.Contains(q, "lease"):
		addFilter("agreement_type", "Lease Agreement")
	}

	switch {
	case strings.Contains(q, "oil"), strings.Contains(q, "gas"):
		addFilter("industry", "Oil & Gas")
	case strings.Contains(q, "technology"), strings.Contains(q, "tech"):
		addFilter("industry", "Technology")
	case strings.Contains(q, "healthcare"), strings.Contains(q, "medical"):
		addFilter("industry", "Healthcare")
	}

	// Surface every field the question filters on.
	for _, field := range analysis.FieldsNeeded {
		analysis.ReturnFields = append(analysis.ReturnFields, field)
	}
	if strings.Contains(q, "expir") {
		analysis.ReturnFields = append(analysis.ReturnFields, "expiration_date")
	}
	if strings.Contains(q, "value") || strings.Contains(q, "worth") {
		analysis.ReturnFields = append(analysis.ReturnFields, "contract_value", "currency")
	}
	if strings.Contains(q, "part") { // parties, counterpart, counterparty
		analysis.ReturnFields = append(analysis.ReturnFields, "parties")
	}

	return analysis
}

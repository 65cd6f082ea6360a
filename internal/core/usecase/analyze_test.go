package usecase

import "testing"

func TestAnalyzeQuestionGoverningLaw(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{"Which agreements are governed by UAE law?", "UAE"},
		{"contracts signed in Dubai", "UAE"},
		{"show me agreements under English law", "UK"},
		{"Delaware incorporated counterparties", "Delaware"},
		{"contracts governed by New York law", "New York"},
	}
	for _, tc := range cases {
		analysis := analyzeQuestion(tc.question)
		if got := analysis.Filters["governing_law"]; got != tc.want {
			t.Errorf("analyzeQuestion(%q) governing_law = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestAnalyzeQuestionAgreementType(t *testing.T) {
	analysis := analyzeQuestion("Show me all NDAs")
	if analysis.Filters["agreement_type"] != "NDA" {
		t.Fatalf("unexpected filters %v", analysis.Filters)
	}

	analysis = analyzeQuestion("master service agreements in the technology sector")
	if analysis.Filters["agreement_type"] != "MSA" {
		t.Fatalf("unexpected agreement filter %v", analysis.Filters)
	}
	if analysis.Filters["industry"] != "Technology" {
		t.Fatalf("unexpected industry filter %v", analysis.Filters)
	}
}

func TestAnalyzeQuestionIndustry(t *testing.T) {
	analysis := analyzeQuestion("oil and gas contracts expiring this year")
	if analysis.Filters["industry"] != "Oil & Gas" {
		t.Fatalf("unexpected filters %v", analysis.Filters)
	}
	found := false
	for _, f := range analysis.ReturnFields {
		if f == "expiration_date" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected expiration_date in return fields, got %v", analysis.ReturnFields)
	}
}

func TestAnalyzeQuestionNoMatchKeepsDefaults(t *testing.T) {
	analysis := analyzeQuestion("show everything")
	if len(analysis.Filters) != 0 {
		t.Fatalf("expected no filters, got %v", analysis.Filters)
	}
	if len(analysis.ReturnFields) != 3 {
		t.Fatalf("unexpected default return fields %v", analysis.ReturnFields)
	}
}

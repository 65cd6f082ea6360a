package usecase

import (
	"context"
	"testing"
)

func TestSuggestShortPrefixReturnsEmpty(t *testing.T) {
	uc := NewQueryUseCase(newRepoFake(), &queryLogFake{popular: []string{"should not appear"}}, nil)

	got, err := uc.Suggest(context.Background(), "n", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got.Suggestions) != 0 || len(got.PopularQueries) != 0 {
		t.Fatalf("expected empty payload, got %+v", got)
	}
}

func TestSuggestIncludesPopularAndTemplates(t *testing.T) {
	queryLog := &queryLogFake{popular: []string{"nda expiring soon"}}
	uc := NewQueryUseCase(newRepoFake(), queryLog, nil)

	got, err := uc.Suggest(context.Background(), "show nda", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got.PopularQueries) != 1 || got.PopularQueries[0] != "nda expiring soon" {
		t.Fatalf("unexpected popular queries %v", got.PopularQueries)
	}
	if len(got.Suggestions) == 0 {
		t.Fatalf("expected generated suggestions")
	}
	if got.Suggestions[0] != "Show me all show nda documents" {
		t.Fatalf("unexpected first suggestion %q", got.Suggestions[0])
	}
	if len(got.LegalTerms) == 0 {
		t.Fatalf("expected legal terms")
	}
}

func TestSuggestCapsToLimit(t *testing.T) {
	uc := NewQueryUseCase(newRepoFake(), &queryLogFake{}, nil)

	got, err := uc.Suggest(context.Background(), "uae", 2)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got.Suggestions))
	}
}

package metadata

import (
	"context"
	"testing"
)

func TestExtractAgreementAndLaw(t *testing.T) {
	e := NewRulesExtractor()
	text := `This Master Services Agreement ("Agreement") is entered into as of 2024-03-01
between Acme Software FZE and Gulf Drilling LLC, and is governed by UAE law.
Total consideration: 250000 AED. Expires 2026-03-01.`

	meta, err := e.Extract(context.Background(), text, "msa.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if meta.AgreementType != "MSA" {
		t.Fatalf("AgreementType = %q, want MSA", meta.AgreementType)
	}
	if meta.GoverningLaw != "UAE" || meta.Jurisdiction != "UAE" {
		t.Fatalf("GoverningLaw = %q, Jurisdiction = %q", meta.GoverningLaw, meta.Jurisdiction)
	}
	if meta.Geography != "Middle East" {
		t.Fatalf("Geography = %q", meta.Geography)
	}
	if meta.EffectiveDate == nil || meta.EffectiveDate.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("EffectiveDate = %v", meta.EffectiveDate)
	}
	if meta.ExpirationDate == nil || meta.ExpirationDate.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("ExpirationDate = %v", meta.ExpirationDate)
	}
	if meta.Currency != "AED" {
		t.Fatalf("Currency = %q", meta.Currency)
	}
}

func TestExtractNDABeatsServiceAgreement(t *testing.T) {
	e := NewRulesExtractor()
	text := "Non-Disclosure Agreement concerning a proposed service agreement under English law."

	meta, err := e.Extract(context.Background(), text, "nda.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if meta.AgreementType != "NDA" {
		t.Fatalf("AgreementType = %q, want NDA", meta.AgreementType)
	}
	if meta.GoverningLaw != "UK" {
		t.Fatalf("GoverningLaw = %q, want UK", meta.GoverningLaw)
	}
	if meta.Geography != "Europe" {
		t.Fatalf("Geography = %q, want Europe", meta.Geography)
	}
}

func TestExtractIndustry(t *testing.T) {
	e := NewRulesExtractor()

	meta, err := e.Extract(context.Background(), "A cloud software subscription Service Agreement.", "x.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if meta.Industry != "Technology" {
		t.Fatalf("Industry = %q, want Technology", meta.Industry)
	}
}

func TestExtractNothingKeepsZeroValues(t *testing.T) {
	e := NewRulesExtractor()

	meta, err := e.Extract(context.Background(), "lorem ipsum", "x.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if meta.AgreementType != "" || meta.GoverningLaw != "" || meta.Industry != "" {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
	if meta.Confidence != 0.5 {
		t.Fatalf("Confidence = %v, want 0.5", meta.Confidence)
	}
}

// Package metadata derives structured document metadata from extracted text
// using deterministic pattern rules.
package metadata

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

type pattern struct {
	value string
	re    *regexp.Regexp
}

// Ordered: the first match wins, so more specific patterns come first.
var agreementPatterns = []pattern{
	{"NDA", regexp.MustCompile(`(?i)\b(non[-\s]disclosure|confidentiality)\s+agreement\b`)},
	{"MSA", regexp.MustCompile(`(?i)\bmaster\s+services?\s+agreement\b`)},
	{"Franchise Agreement", regexp.MustCompile(`(?i)\bfranchise\s+agreement\b`)},
	{"Employment Agreement", regexp.MustCompile(`(?i)\bemployment\s+agreement\b`)},
	{"Lease Agreement", regexp.MustCompile(`(?i)\blease\s+agreement\b`)},
	{"License Agreement", regexp.MustCompile(`(?i)\blicen[sc]e\s+agreement\b`)},
	{"Service Agreement", regexp.MustCompile(`(?i)\bservices?\s+agreement\b`)},
}

var lawPatterns = []pattern{
	{"UAE", regexp.MustCompile(`(?i)\b(UAE|United Arab Emirates|Dubai|Abu Dhabi)\s+law\b`)},
	{"UK", regexp.MustCompile(`(?i)\b(UK|United Kingdom|English)\s+law\b`)},
	{"Delaware", regexp.MustCompile(`(?i)\bDelaware\s+law\b`)},
	{"New York", regexp.MustCompile(`(?i)\bNew\s+York\s+law\b`)},
	{"California", regexp.MustCompile(`(?i)\bCalifornia\s+law\b`)},
}

var industryPatterns = []pattern{
	{"Technology", regexp.MustCompile(`(?i)\b(software|technology|SaaS|cloud|digital)\b`)},
	{"Oil & Gas", regexp.MustCompile(`(?i)\b(oil|gas|petroleum|drilling)\b`)},
	{"Healthcare", regexp.MustCompile(`(?i)\b(healthcare|medical|pharmaceutical|hospital)\b`)},
	{"Finance", regexp.MustCompile(`(?i)\b(finance|banking|investment|securities)\b`)},
	{"Real Estate", regexp.MustCompile(`(?i)\b(real\s+estate|property|rental)\b`)},
}

var geographyByLaw = map[string]string{
	"UAE":        "Middle East",
	"UK":         "Europe",
	"Delaware":   "North America",
	"New York":   "North America",
	"California": "North America",
}

var (
	dateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	partiesRe  = regexp.MustCompile(`(?i)\bbetween\s+([A-Z][A-Za-z0-9&.,' ]{2,60}?)\s+and\s+([A-Z][A-Za-z0-9&.,' ]{2,60}?)(?:\s*[(,.]|\s+(?:is|are|shall|hereby|dated)\b)`)
	currencyRe = regexp.MustCompile(`\b(USD|EUR|AED|GBP)\b`)
)

type RulesExtractor struct{}

func NewRulesExtractor() *RulesExtractor {
	return &RulesExtractor{}
}

func (e *RulesExtractor) Extract(_ context.Context, text, _ string) (domain.DocumentMetadata, error) {
	meta := domain.DocumentMetadata{Confidence: 0.5}

	for _, p := range agreementPatterns {
		if p.re.MatchString(text) {
			meta.AgreementType = p.value
			break
		}
	}

	for _, p := range lawPatterns {
		if p.re.MatchString(text) {
			meta.GoverningLaw = p.value
			meta.Jurisdiction = p.value
			break
		}
	}
	meta.Geography = geographyByLaw[meta.GoverningLaw]

	for _, p := range industryPatterns {
		if p.re.MatchString(text) {
			meta.Industry = p.value
			break
		}
	}

	if m := partiesRe.FindStringSubmatch(text); m != nil {
		meta.Parties = []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
	}

	// First ISO date in the document is taken as the effective date, the
	// second (if any) as the expiration date.
	dates := dateRe.FindAllString(text, 2)
	if len(dates) > 0 {
		if d, err := time.Parse("2006-01-02", dates[0]); err == nil {
			meta.EffectiveDate = &d
		}
	}
	if len(dates) > 1 {
		if d, err := time.Parse("2006-01-02", dates[1]); err == nil {
			meta.ExpirationDate = &d
		}
	}

	if m := currencyRe.FindString(text); m != "" {
		meta.Currency = m
	}

	return meta, nil
}

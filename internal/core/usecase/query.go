package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

type QueryUseCase struct {
	repo     ports.DocumentRepository
	queryLog ports.QueryLog
	logger   *slog.Logger
}

func NewQueryUseCase(repo ports.DocumentRepository, queryLog ports.QueryLog, logger *slog.Logger) *QueryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUseCase{repo: repo, queryLog: queryLog, logger: logger}
}

// Execute answers one natural-language interrogation: derive filters from the
// question, search processed documents and shape the paginated response.
func (uc *QueryUseCase) Execute(
	ctx context.Context,
	userID int64,
	params domain.QueryParams,
) (*domain.QueryResponse, error) {
	if strings.TrimSpace(params.Question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "execute query",
			fmt.Errorf("empty question"))
	}
	params = params.Normalize()
	started := time.Now()

	analysis := analyzeQuestion(params.Question)

	docs, total, err := uc.repo.Search(ctx, userID, analysis, params)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	results := make([]domain.QueryResult, 0, len(docs))
	for i := range docs {
		results = append(results, formatResult(&docs[i], analysis))
	}

	totalPages := (total + params.MaxResults - 1) / params.MaxResults
	elapsed := time.Since(started).Milliseconds()

	entry := domain.QueryLogEntry{
		UserID:          userID,
		QueryText:       params.Question,
		ResultCount:     total,
		ExecutionTimeMS: elapsed,
	}
	if err := uc.queryLog.Insert(ctx, entry); err != nil {
		uc.logger.Warn("query log insert failed", "user_id", userID, "error", err)
	}

	return &domain.QueryResponse{
		Question:        params.Question,
		Results:         results,
		TotalResults:    total,
		Page:            params.Page,
		PerPage:         params.MaxResults,
		TotalPages:      totalPages,
		ExecutionTimeMS: elapsed,
		FiltersApplied:  params.Filters,
	}, nil
}

// formatResult flattens a document row into the response shape. Only fields
// the question implies are included when the analysis narrows them; otherwise
// every populated field is returned.
func formatResult(doc *domain.Document, analysis domain.QueryAnalysis) domain.QueryResult {
	fields := map[string]string{}
	if doc.Metadata != nil {
		m := doc.Metadata
		put := func(key, value string) {
			if value != "" {
				fields[key] = value
			}
		}
		put("agreement_type", m.AgreementType)
		put("governing_law", m.GoverningLaw)
		put("jurisdiction", m.Jurisdiction)
		put("geography", m.Geography)
		put("industry", m.Industry)
		put("currency", m.Currency)
		if len(m.Parties) > 0 {
			fields["parties"] = strings.Join(m.Parties, "; ")
		}
		if m.EffectiveDate != nil {
			fields["effective_date"] = m.EffectiveDate.Format("2006-01-02")
		}
		if m.ExpirationDate != nil {
			fields["expiration_date"] = m.ExpirationDate.Format("2006-01-02")
		}
		if m.ContractValue > 0 {
			fields["contract_value"] = strconv.FormatFloat(m.ContractValue, 'f', 2, 64)
		}
	}
	fields["upload_date"] = doc.UploadDate.Format("2006-01-02")
	if doc.PageCount > 0 {
		fields["page_count"] = strconv.Itoa(doc.PageCount)
	}

	if len(analysis.ReturnFields) > 0 {
		keep := map[string]bool{"upload_date": true}
		for _, f := range analysis.ReturnFields {
			keep[f] = true
		}
		for key := range fields {
			if !keep[key] {
				delete(fields, key)
			}
		}
	}

	return domain.QueryResult{
		Document:   doc.Filename,
		DocumentID: doc.ID,
		Metadata:   fields,
	}
}

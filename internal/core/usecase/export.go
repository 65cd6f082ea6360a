package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

var exportColumns = []string{
	"document", "document_id", "agreement_type", "governing_law", "jurisdiction",
	"geography", "industry", "parties", "effective_date", "expiration_date",
	"contract_value", "currency", "upload_date",
}

// ExportUseCase renders a full query result set as a downloadable file.
// Pagination is overridden: an export always covers page 1 up to the
// configured cap.
type ExportUseCase struct {
	interrogator ports.Interrogator
	maxResults   int
}

func NewExportUseCase(interrogator ports.Interrogator, maxResults int) *ExportUseCase {
	if maxResults <= 0 {
		maxResults = 1000
	}
	return &ExportUseCase{interrogator: interrogator, maxResults: maxResults}
}

func (uc *ExportUseCase) ExportQuery(
	ctx context.Context,
	userID int64,
	params domain.QueryParams,
	format string,
) (string, []byte, error) {
	params.Page = 1
	params.MaxResults = uc.maxResults

	resp, err := uc.interrogator.Execute(ctx, userID, params)
	if err != nil {
		return "", nil, fmt.Errorf("execute export query: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	switch format {
	case "csv", "":
		content, err := renderCSV(resp.Results)
		if err != nil {
			return "", nil, err
		}
		return "query_export_" + stamp + ".csv", content, nil
	case "xlsx":
		content, err := renderXLSX(resp.Results)
		if err != nil {
			return "", nil, err
		}
		return "query_export_" + stamp + ".xlsx", content, nil
	default:
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "export query",
			fmt.Errorf("unsupported format %q", format))
	}
}

func exportRow(r domain.QueryResult) []string {
	row := make([]string, 0, len(exportColumns))
	for _, col := range exportColumns {
		switch col {
		case "document":
			row = append(row, r.Document)
		case "document_id":
			row = append(row, strconv.FormatInt(r.DocumentID, 10))
		default:
			row = append(row, r.Metadata[col])
		}
	}
	return row
}

func renderCSV(results []domain.QueryResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(exportRow(r)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(results []domain.QueryResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Results"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	for i, r := range results {
		values := exportRow(r)
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve xlsx cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

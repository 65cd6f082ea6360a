package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	filename TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_path TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	upload_date TIMESTAMPTZ NOT NULL,
	processed BOOLEAN NOT NULL DEFAULT FALSE,
	processing_error TEXT,
	page_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_metadata (
	document_id BIGINT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	agreement_type TEXT,
	governing_law TEXT,
	jurisdiction TEXT,
	geography TEXT,
	industry TEXT,
	parties JSONB NOT NULL DEFAULT '[]'::jsonb,
	effective_date DATE,
	expiration_date DATE,
	contract_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency TEXT,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS queries (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	query_text TEXT NOT NULL,
	result_count INT NOT NULL DEFAULT 0,
	execution_time_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
CREATE INDEX IF NOT EXISTS idx_documents_processed ON documents(processed);
CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents(upload_date DESC);
CREATE INDEX IF NOT EXISTS idx_queries_text ON queries(query_text);
`
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `
d.id, d.user_id, d.filename, d.file_type, d.file_path, d.file_size, d.upload_date,
d.processed, d.processing_error, d.page_count, d.created_at,
m.agreement_type, m.governing_law, m.jurisdiction, m.geography, m.industry,
m.parties, m.effective_date, m.expiration_date, m.contract_value, m.currency, m.confidence_score`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO documents (user_id, filename, file_type, file_path, file_size, upload_date, processed, processing_error, page_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id
`,
		doc.UserID, doc.Filename, doc.FileType, doc.FilePath, doc.FileSize,
		doc.UploadDate, doc.Processed, doc.ProcessingError, doc.PageCount, doc.CreatedAt,
	)
	if err := row.Scan(&doc.ID); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
LEFT JOIN document_metadata m ON m.document_id = d.id
WHERE d.id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, userID int64, skip, limit int) ([]domain.Document, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
LEFT JOIN document_metadata m ON m.document_id = d.id
WHERE d.user_id = $1
ORDER BY d.upload_date DESC
OFFSET $2 LIMIT $3
`, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, processed bool, processingError *string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET processed = $2, processing_error = $3
WHERE id = $1
`, id, processed, processingError)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id=%d", id))
	}
	return nil
}

func (r *DocumentRepository) SaveMetadata(ctx context.Context, id int64, pageCount int, meta domain.DocumentMetadata) error {
	partiesJSON, err := json.Marshal(meta.Parties)
	if err != nil {
		return fmt.Errorf("marshal parties: %w", err)
	}
	if meta.Parties == nil {
		partiesJSON = []byte("[]")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metadata tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
UPDATE documents SET page_count = $2 WHERE id = $1
`, id, pageCount)
	if err != nil {
		return fmt.Errorf("update page count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "save metadata", fmt.Errorf("id=%d", id))
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO document_metadata (
	document_id, agreement_type, governing_law, jurisdiction, geography, industry,
	parties, effective_date, expiration_date, contract_value, currency, confidence_score
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (document_id) DO UPDATE SET
	agreement_type = EXCLUDED.agreement_type,
	governing_law = EXCLUDED.governing_law,
	jurisdiction = EXCLUDED.jurisdiction,
	geography = EXCLUDED.geography,
	industry = EXCLUDED.industry,
	parties = EXCLUDED.parties,
	effective_date = EXCLUDED.effective_date,
	expiration_date = EXCLUDED.expiration_date,
	contract_value = EXCLUDED.contract_value,
	currency = EXCLUDED.currency,
	confidence_score = EXCLUDED.confidence_score
`, id, nullable(meta.AgreementType), nullable(meta.GoverningLaw), nullable(meta.Jurisdiction),
		nullable(meta.Geography), nullable(meta.Industry), partiesJSON,
		meta.EffectiveDate, meta.ExpirationDate, meta.ContractValue,
		nullable(meta.Currency), meta.Confidence)
	if err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit metadata tx: %w", err)
	}
	return nil
}

// Search applies rule-analysis equality filters and the explicit list filters,
// sorts, counts and paginates in one place so results and totals agree.
func (r *DocumentRepository) Search(
	ctx context.Context,
	userID int64,
	analysis domain.QueryAnalysis,
	params domain.QueryParams,
) ([]domain.Document, int, error) {
	where := []string{"d.user_id = $1", "d.processed = TRUE"}
	args := []any{userID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, field := range []string{"agreement_type", "governing_law", "jurisdiction", "industry"} {
		if v, ok := analysis.Filters[field]; ok && v != "" {
			where = append(where, fmt.Sprintf("m.%s = %s", field, arg(v)))
		}
	}

	addIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, 0, len(values))
		for _, v := range values {
			placeholders = append(placeholders, arg(v))
		}
		where = append(where, fmt.Sprintf("m.%s IN (%s)", column, strings.Join(placeholders, ",")))
	}
	addIn("agreement_type", params.Filters.AgreementTypes)
	addIn("jurisdiction", params.Filters.Jurisdictions)
	addIn("industry", params.Filters.Industries)
	addIn("geography", params.Filters.Geographies)

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `
SELECT COUNT(*)
FROM documents d
LEFT JOIN document_metadata m ON m.document_id = d.id
WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	order := "d.upload_date DESC"
	dir := "DESC"
	if params.SortOrder == "asc" {
		dir = "ASC"
	}
	switch params.SortBy {
	case "date":
		order = "d.upload_date " + dir
	case "document_name":
		order = "d.filename " + dir
	}

	offset := (params.Page - 1) * params.MaxResults
	query := `
SELECT ` + documentColumns + `
FROM documents d
LEFT JOIN document_metadata m ON m.document_id = d.id
WHERE ` + whereClause + `
ORDER BY ` + order + `
OFFSET ` + arg(offset) + ` LIMIT ` + arg(params.MaxResults)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search results: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) AggregateStats(ctx context.Context, userID int64) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		AgreementTypes: map[string]int{},
		Jurisdictions:  map[string]int{},
		Industries:     map[string]int{},
		Geographies:    map[string]int{},
	}

	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE processed),
	COUNT(*) FILTER (WHERE NOT processed AND processing_error IS NULL),
	COUNT(*) FILTER (WHERE processing_error IS NOT NULL),
	COALESCE(SUM(page_count), 0)
FROM documents
WHERE user_id = $1
`, userID).Scan(
		&stats.TotalDocuments,
		&stats.ProcessedDocuments,
		&stats.PendingDocuments,
		&stats.FailedDocuments,
		&stats.TotalPages,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate document counts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT
	COALESCE(m.agreement_type, ''), COALESCE(m.governing_law, ''),
	COALESCE(m.industry, ''), COALESCE(m.geography, ''),
	COUNT(*)
FROM documents d
JOIN document_metadata m ON m.document_id = d.id
WHERE d.user_id = $1
GROUP BY 1, 2, 3, 4
`, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate metadata counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agreement, law, industry, geography string
		var count int
		if err := rows.Scan(&agreement, &law, &industry, &geography, &count); err != nil {
			return nil, fmt.Errorf("scan metadata counts: %w", err)
		}
		if agreement != "" {
			stats.AgreementTypes[agreement] += count
		}
		if law != "" {
			stats.Jurisdictions[law] += count
		}
		if industry != "" {
			stats.Industries[industry] += count
		}
		if geography != "" {
			stats.Geographies[geography] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata counts: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc        domain.Document
		procErr    sql.NullString
		agreement  sql.NullString
		law        sql.NullString
		juris      sql.NullString
		geo        sql.NullString
		industry   sql.NullString
		partiesRaw []byte
		effDate    sql.NullTime
		expDate    sql.NullTime
		value      sql.NullFloat64
		currency   sql.NullString
		confidence sql.NullFloat64
	)

	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.FileType, &doc.FilePath, &doc.FileSize, &doc.UploadDate,
		&doc.Processed, &procErr, &doc.PageCount, &doc.CreatedAt,
		&agreement, &law, &juris, &geo, &industry,
		&partiesRaw, &effDate, &expDate, &value, &currency, &confidence,
	)
	if err != nil {
		return nil, err
	}

	if procErr.Valid {
		doc.ProcessingError = &procErr.String
	}

	hasMetadata := agreement.Valid || law.Valid || juris.Valid || geo.Valid || industry.Valid ||
		currency.Valid || effDate.Valid || expDate.Valid || confidence.Valid
	if hasMetadata {
		meta := &domain.DocumentMetadata{
			AgreementType: agreement.String,
			GoverningLaw:  law.String,
			Jurisdiction:  juris.String,
			Geography:     geo.String,
			Industry:      industry.String,
			ContractValue: value.Float64,
			Currency:      currency.String,
			Confidence:    confidence.Float64,
		}
		if effDate.Valid {
			d := effDate.Time
			meta.EffectiveDate = &d
		}
		if expDate.Valid {
			d := expDate.Time
			meta.ExpirationDate = &d
		}
		if len(partiesRaw) > 0 {
			if err := json.Unmarshal(partiesRaw, &meta.Parties); err != nil {
				return nil, fmt.Errorf("unmarshal parties: %w", err)
			}
		}
		doc.Metadata = meta
	}
	return &doc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

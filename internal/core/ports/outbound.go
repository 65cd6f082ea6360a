package ports

import (
	"context"
	"io"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	List(ctx context.Context, userID int64, skip, limit int) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, processed bool, processingError *string) error
	SaveMetadata(ctx context.Context, id int64, pageCount int, meta domain.DocumentMetadata) error
	Search(ctx context.Context, userID int64, analysis domain.QueryAnalysis, params domain.QueryParams) ([]domain.Document, int, error)
	AggregateStats(ctx context.Context, userID int64) (*domain.DashboardStats, error)
}

// QueryLog records executed interrogations and serves popularity lookups.
type QueryLog interface {
	Insert(ctx context.Context, entry domain.QueryLogEntry) error
	PopularQueries(ctx context.Context, prefix string, limit int) ([]string, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// IngestQueue publishes/consumes document-ingested events between api and worker.
type IngestQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID int64) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, int64) error) error
}

// UpdatePublisher pushes status updates toward connected dashboard sessions.
type UpdatePublisher interface {
	PublishStatusUpdate(ctx context.Context, userID int64, update domain.StatusUpdate) error
}

// DocumentParser extracts plain text and a page count from a stored document.
type DocumentParser interface {
	Parse(ctx context.Context, doc *domain.Document) (text string, pageCount int, err error)
}

// MetadataExtractor derives structured metadata from extracted text.
type MetadataExtractor interface {
	Extract(ctx context.Context, text, filename string) (domain.DocumentMetadata, error)
}

// StatsCache is the cache-aside store for dashboard aggregates.
type StatsCache interface {
	Get(ctx context.Context, userID int64) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, userID int64, stats *domain.DashboardStats) error
	Invalidate(ctx context.Context, userID int64) error
}

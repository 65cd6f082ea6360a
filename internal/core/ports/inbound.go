package ports

import (
	"context"
	"io"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, userID int64, filename string, size int64, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	List(ctx context.Context, userID int64, skip, limit int) ([]domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID int64) error
}

// Interrogator executes natural-language queries across document metadata.
type Interrogator interface {
	Execute(ctx context.Context, userID int64, params domain.QueryParams) (*domain.QueryResponse, error)
}

// StatsProvider serves the dashboard aggregates.
type StatsProvider interface {
	DashboardStats(ctx context.Context, userID int64) (*domain.DashboardStats, error)
}

// Exporter renders query results into a downloadable format.
type Exporter interface {
	ExportQuery(ctx context.Context, userID int64, params domain.QueryParams, format string) (filename string, content []byte, err error)
}

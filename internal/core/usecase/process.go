package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	parser    ports.DocumentParser
	extractor ports.MetadataExtractor
	publisher ports.UpdatePublisher
	cache     ports.StatsCache
	timeout   time.Duration
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	parser ports.DocumentParser,
	extractor ports.MetadataExtractor,
	publisher ports.UpdatePublisher,
	cache ports.StatsCache,
	timeout time.Duration,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:      repo,
		parser:    parser,
		extractor: extractor,
		publisher: publisher,
		cache:     cache,
		timeout:   timeout,
		logger:    logger,
	}
}

// ProcessByID runs the extraction pipeline for one document and records the
// terminal state. A status update is published on every outcome, success or
// failure, so connected dashboards converge either way.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID int64) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.processPipeline(ctx, doc); err != nil {
		if failErr := uc.markFailed(ctx, doc, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, true, nil); err != nil {
		return fmt.Errorf("set processed status: %w", err)
	}
	uc.notify(ctx, doc.UserID, domain.StatusUpdate{
		DocumentID: documentID,
		Processed:  true,
	})
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, doc *domain.Document) error {
	text, pageCount, err := uc.parser.Parse(ctx, doc)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "parse document", errors.New("empty extracted text"))
	}

	meta, err := uc.extractor.Extract(ctx, text, doc.Filename)
	if err != nil {
		return fmt.Errorf("extract metadata: %w", err)
	}

	if err := uc.repo.SaveMetadata(ctx, doc.ID, pageCount, meta); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, doc *domain.Document, processErr error) error {
	msg := processErr.Error()
	if err := uc.repo.UpdateStatus(ctx, doc.ID, false, &msg); err != nil {
		return err
	}
	uc.notify(ctx, doc.UserID, domain.StatusUpdate{
		DocumentID:      doc.ID,
		Processed:       false,
		ProcessingError: &msg,
	})
	return nil
}

// notify is best-effort: a lost push only delays the dashboard until its
// next refetch, while a failed pipeline must surface to the queue.
func (uc *ProcessDocumentUseCase) notify(ctx context.Context, userID int64, update domain.StatusUpdate) {
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("stats cache invalidation failed", "user_id", userID, "error", err)
	}
	if err := uc.publisher.PublishStatusUpdate(ctx, userID, update); err != nil {
		uc.logger.Warn("status update publish failed",
			"user_id", userID, "document_id", update.DocumentID, "error", err)
	}
}

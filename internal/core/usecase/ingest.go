package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

var supportedFileTypes = map[string]bool{
	"pdf": true,
	"txt": true,
}

type IngestDocumentUseCase struct {
	repo           ports.DocumentRepository
	storage        ports.ObjectStorage
	queue          ports.IngestQueue
	statsCache     ports.StatsCache
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.IngestQueue,
	statsCache ports.StatsCache,
	maxUploadBytes int64,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:           repo,
		storage:        storage,
		queue:          queue,
		statsCache:     statsCache,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload stores one document, records it as pending and enqueues it for
// processing. The status update for the finished extraction arrives later
// over the push channel.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	userID int64,
	filename string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !supportedFileTypes[fileType] {
		return nil, domain.WrapError(domain.ErrUnsupportedType, "upload document",
			fmt.Errorf("file type %q", fileType))
	}
	if uc.maxUploadBytes > 0 && size > uc.maxUploadBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("file size %d exceeds limit %d", size, uc.maxUploadBytes))
	}

	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))

	reader := body
	if uc.maxUploadBytes > 0 {
		// The declared size is client-supplied; cap the stream regardless.
		reader = io.LimitReader(body, uc.maxUploadBytes+1)
	}
	written, err := uc.storage.Save(ctx, storageKey, reader)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if uc.maxUploadBytes > 0 && written > uc.maxUploadBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			errors.New("upload stream exceeds size limit"))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		Filename:   filename,
		FileType:   fileType,
		FilePath:   storageKey,
		FileSize:   written,
		UserID:     userID,
		UploadDate: now,
		CreatedAt:  now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	if err := uc.statsCache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("stats cache invalidation failed", "user_id", userID, "error", err)
	}
	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	// filepath.Base turns "" into "." and keeps "..", neither is a usable key.
	if base == "." || base == ".." {
		base = ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}

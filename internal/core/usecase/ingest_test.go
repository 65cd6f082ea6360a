package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

func TestIngestUploadSuccess(t *testing.T) {
	repo := newRepoFake()
	storage := &storageFake{}
	queue := &queueFake{}
	cache := &cacheFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, cache, 0, nil)

	doc, err := uc.Upload(context.Background(), 7, "nda draft 1.txt", 5, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == 0 {
		t.Fatalf("expected document id")
	}
	if !doc.Pending() {
		t.Fatalf("expected pending document, got %+v", doc)
	}
	if doc.FileType != "txt" || doc.FileSize != 5 || doc.UserID != 7 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected queued doc id %d, got %v", doc.ID, queue.published)
	}
	if !strings.Contains(storage.savedKey, "_nda_draft_1.txt") {
		t.Fatalf("expected sanitized key suffix, got %s", storage.savedKey)
	}
	if storage.savedBody != "hello" {
		t.Fatalf("expected saved body hello, got %s", storage.savedBody)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != 7 {
		t.Fatalf("expected stats invalidation for user 7, got %v", cache.invalidated)
	}
}

func TestIngestUploadRejectsUnsupportedType(t *testing.T) {
	uc := NewIngestDocumentUseCase(newRepoFake(), &storageFake{}, &queueFake{}, &cacheFake{}, 0, nil)

	_, err := uc.Upload(context.Background(), 1, "scan.docx", 10, bytes.NewBufferString("x"))
	if !domain.IsKind(err, domain.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestIngestUploadRejectsOversizedDeclaredSize(t *testing.T) {
	uc := NewIngestDocumentUseCase(newRepoFake(), &storageFake{}, &queueFake{}, &cacheFake{}, 4, nil)

	_, err := uc.Upload(context.Background(), 1, "big.txt", 100, bytes.NewBufferString("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestUploadRejectsOversizedStream(t *testing.T) {
	// Declared size lies; the stream itself exceeds the cap.
	uc := NewIngestDocumentUseCase(newRepoFake(), &storageFake{}, &queueFake{}, &cacheFake{}, 4, nil)

	_, err := uc.Upload(context.Background(), 1, "big.txt", 2, bytes.NewBufferString("0123456789"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestUploadQueueError(t *testing.T) {
	queue := &queueFake{err: errors.New("queue down")}
	uc := NewIngestDocumentUseCase(newRepoFake(), &storageFake{}, queue, &cacheFake{}, 0, nil)

	_, err := uc.Upload(context.Background(), 1, "report.txt", 5, bytes.NewBufferString("hello"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"contract v2.pdf":  "contract_v2.pdf",
		"../../etc/passwd": "passwd",
		"":                 "document.bin",
		".":                "document.bin",
		"..":               "document.bin",
		"тендер.pdf":       "______.pdf",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

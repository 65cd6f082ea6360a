// Package parser extracts plain text and page counts from stored documents.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

type Parser struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Parser {
	return &Parser{storage: storage}
}

func (p *Parser) Parse(ctx context.Context, doc *domain.Document) (string, int, error) {
	rc, err := p.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return "", 0, fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", 0, fmt.Errorf("read stored document: %w", err)
	}

	switch strings.ToLower(doc.FileType) {
	case "pdf":
		return parsePDF(raw)
	case "txt", "text":
		return parseText(raw)
	default:
		return "", 0, domain.WrapError(domain.ErrUnsupportedType, "parse document",
			fmt.Errorf("file type %q", doc.FileType))
	}
}

func parsePDF(raw []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("extract pdf text: %w", err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}

	return string(text), reader.NumPage(), nil
}

func parseText(raw []byte) (string, int, error) {
	text := string(raw)
	// Plain text has no pagination; approximate a page per 3000 characters.
	pages := len(text)/3000 + 1
	return text, pages, nil
}

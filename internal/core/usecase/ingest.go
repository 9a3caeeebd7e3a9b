package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/ports"
)

const sniffBytes = 3072

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	sniffer ports.ContentSniffer
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	sniffer ports.ContentSniffer,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		sniffer: sniffer,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("filename is required"))
	}

	buffered := bufio.NewReaderSize(body, sniffBytes)
	head, err := buffered.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read upload head: %w", err)
	}
	if len(head) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("empty file"))
	}

	mimeType = uc.resolveMimeType(mimeType, head)
	format := domain.DetectFormat(filename, mimeType)
	if !format.Supported() {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload document",
			fmt.Errorf("file=%s mime=%s", filename, mimeType))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, buffered); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		Format:      format,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

// resolveMimeType prefers the sniffed type unless it is a generic container
// (zip, octet-stream, plain text) where the client header is more specific.
func (uc *IngestDocumentUseCase) resolveMimeType(declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if uc.sniffer == nil {
		return declared
	}
	sniffed := uc.sniffer.Sniff(head)
	base := sniffed
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	switch base {
	case "", "application/octet-stream", "application/zip", "text/plain":
		if declared != "" && declared != "application/octet-stream" {
			return declared
		}
	}
	if sniffed == "" {
		return declared
	}
	return sniffed
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
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
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

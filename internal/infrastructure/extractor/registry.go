// Package extractor turns stored documents into plain text by dispatching on
// the document format.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/ports"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor/epub"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor/xlsx"
)

const DefaultMaxBytes int64 = 32 << 20

// FormatExtractor converts the raw bytes of one document format to text.
type FormatExtractor interface {
	ExtractText(ctx context.Context, raw []byte) (string, error)
}

type Registry struct {
	storage    ports.ObjectStorage
	maxBytes   int64
	extractors map[domain.DocumentFormat]FormatExtractor
}

// NewRegistry registers the built-in extractors. storage may be nil when only
// ExtractFile and ExtractBytes are used.
func NewRegistry(storage ports.ObjectStorage, maxBytes int64) *Registry {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	r := &Registry{
		storage:    storage,
		maxBytes:   maxBytes,
		extractors: make(map[domain.DocumentFormat]FormatExtractor),
	}
	r.Register(domain.FormatText, plaintext.NewExtractor())
	r.Register(domain.FormatDOCX, docx.NewExtractor())
	r.Register(domain.FormatEPUB, epub.NewExtractor())
	r.Register(domain.FormatPDF, pdf.NewExtractor())
	r.Register(domain.FormatXLSX, xlsx.NewExtractor())
	return r
}

func (r *Registry) Register(format domain.DocumentFormat, e FormatExtractor) {
	r.extractors[format] = e
}

// Extract implements ports.TextExtractor for documents held in object storage.
func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if r.storage == nil {
		return "", fmt.Errorf("extract %s: no object storage configured", doc.ID)
	}
	reader, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := r.readLimited(reader)
	if err != nil {
		return "", err
	}
	format := doc.Format
	if format == "" {
		format = domain.DetectFormat(doc.Filename, doc.MimeType)
	}
	return r.ExtractBytes(ctx, format, raw)
}

// ExtractFile reads a local file, detecting its format from the name.
func (r *Registry) ExtractFile(ctx context.Context, path string) (string, domain.DocumentFormat, error) {
	format := domain.DetectFormat(path, "")
	if !format.Supported() {
		return "", format, domain.WrapError(domain.ErrUnsupportedFormat, "extract file", fmt.Errorf("path=%s", path))
	}
	f, err := os.Open(path)
	if err != nil {
		return "", format, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	raw, err := r.readLimited(f)
	if err != nil {
		return "", format, err
	}
	text, err := r.ExtractBytes(ctx, format, raw)
	return text, format, err
}

func (r *Registry) ExtractBytes(ctx context.Context, format domain.DocumentFormat, raw []byte) (string, error) {
	e, ok := r.extractors[format]
	if !ok {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract text", fmt.Errorf("format=%s", format))
	}
	text, err := e.ExtractText(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("extract %s text: %w", format, err)
	}
	return text, nil
}

func (r *Registry) readLimited(src io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	if int64(len(raw)) > r.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read source document",
			fmt.Errorf("document exceeds %d bytes", r.maxBytes))
	}
	return raw, nil
}

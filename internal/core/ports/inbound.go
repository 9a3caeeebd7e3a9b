package ports

import (
	"context"
	"io"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous text extraction.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for documents and their text.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Page(ctx context.Context, id string, page, pageSize int) (*domain.DocumentPage, error)
	ContextFor(ctx context.Context, id, selected string) (contextwindow.Window, error)
}

// TranslationService translates highlighted spans and keeps per-document history.
type TranslationService interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (*domain.Translation, error)
	TranslateSelection(ctx context.Context, documentID, selected, targetLanguage, model string) (*domain.Translation, error)
	History(ctx context.Context, documentID string, limit int) ([]domain.Translation, error)
	Vocabulary(ctx context.Context, documentID string, limit int) ([]domain.VocabularyTerm, error)
	Models() []domain.ModelInfo
}

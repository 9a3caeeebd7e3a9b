package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

// DocumentRepository persists document metadata and extracted text.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveText(ctx context.Context, id, text string, wordCount int) error
	GetText(ctx context.Context, id string) (string, error)
}

// TranslationRepository stores the translation history of documents.
type TranslationRepository interface {
	SaveTranslation(ctx context.Context, t *domain.Translation) error
	ListTranslations(ctx context.Context, documentID string, limit int) ([]domain.Translation, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// ContentSniffer detects the MIME type of an upload from its leading bytes.
type ContentSniffer interface {
	Sniff(head []byte) string
}

// Translator calls the LLM provider serving a model.
type Translator interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, domain.ProviderName, error)
	Models() []domain.ModelInfo
}

// TranslationCache memoizes provider results.
type TranslationCache interface {
	Get(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, bool, error)
	Set(ctx context.Context, req domain.TranslationRequest, result domain.TranslationResult, ttl time.Duration) error
}

// VocabularyGraph records looked-up terms per document.
type VocabularyGraph interface {
	RecordLookup(ctx context.Context, t domain.Translation) error
	ListVocabulary(ctx context.Context, documentID string, limit int) ([]domain.VocabularyTerm, error)
}

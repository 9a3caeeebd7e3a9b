package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/ports"
)

type TranslateOptions struct {
	CacheTTL        time.Duration
	MaxContextWords int
	DefaultModel    string
	DefaultLanguage string
	HistoryLimit    int
}

type contextLocator interface {
	ContextFor(ctx context.Context, id, selected string) (contextwindow.Window, error)
}

type TranslateUseCase struct {
	translator ports.Translator
	history    ports.TranslationRepository
	documents  contextLocator
	cache      ports.TranslationCache
	vocabulary ports.VocabularyGraph
	opts       TranslateOptions
}

func NewTranslateUseCase(
	translator ports.Translator,
	history ports.TranslationRepository,
	documents contextLocator,
	cache ports.TranslationCache,
	vocabulary ports.VocabularyGraph,
	opts TranslateOptions,
) *TranslateUseCase {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	return &TranslateUseCase{
		translator: translator,
		history:    history,
		documents:  documents,
		cache:      cache,
		vocabulary: vocabulary,
		opts:       opts,
	}
}

func (uc *TranslateUseCase) Models() []domain.ModelInfo {
	return uc.translator.Models()
}

// Translate sends one selection with its context to the provider serving req.Model.
func (uc *TranslateUseCase) Translate(ctx context.Context, req domain.TranslationRequest) (*domain.Translation, error) {
	req.Selected = strings.TrimSpace(req.Selected)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry := &domain.Translation{
		ID:             uuid.NewString(),
		DocumentID:     req.DocumentID,
		Selected:       req.Selected,
		Context:        req.Context,
		ContextFound:   true,
		TargetLanguage: req.TargetLanguage,
		Model:          req.Model,
		CreatedAt:      time.Now().UTC(),
	}

	if cached, ok := uc.cachedResult(ctx, req); ok {
		entry.Result = *cached
		entry.Cached = true
		entry.Provider = uc.providerOf(req.Model)
		return entry, nil
	}

	result, provider, err := uc.translator.Translate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("translate selection: %w", err)
	}
	entry.Result = result
	entry.Provider = provider

	uc.storeResult(ctx, req, result)
	slog.Info("translation_done",
		"model", req.Model,
		"provider", string(provider),
		"selected_words", len(contextwindow.Words(req.Selected)),
		"context_words", len(contextwindow.Words(req.Context)),
	)
	return entry, nil
}

// TranslateSelection computes the context from the stored document text and
// appends the result to the document's history.
func (uc *TranslateUseCase) TranslateSelection(
	ctx context.Context,
	documentID, selected, targetLanguage, model string,
) (*domain.Translation, error) {
	if strings.TrimSpace(selected) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "translate selection", errors.New("selected is required"))
	}
	if strings.TrimSpace(targetLanguage) == "" {
		targetLanguage = uc.opts.DefaultLanguage
	}
	if strings.TrimSpace(model) == "" {
		model = uc.opts.DefaultModel
	}

	window, err := uc.documents.ContextFor(ctx, documentID, selected)
	if err != nil {
		return nil, err
	}

	contextText := window.Text
	if !window.Found {
		var truncated bool
		contextText, truncated = contextwindow.Truncate(contextText, uc.opts.MaxContextWords)
		slog.Warn("context_fallback_full_text",
			"document_id", documentID,
			"total_words", window.TotalWords,
			"truncated", truncated,
		)
	}

	entry, err := uc.Translate(ctx, domain.TranslationRequest{
		DocumentID:     documentID,
		Selected:       selected,
		Context:        contextText,
		TargetLanguage: targetLanguage,
		Model:          model,
	})
	if err != nil {
		return nil, err
	}
	entry.ContextFound = window.Found

	if err := uc.history.SaveTranslation(ctx, entry); err != nil {
		return nil, fmt.Errorf("save translation history: %w", err)
	}
	uc.recordVocabulary(ctx, *entry)
	return entry, nil
}

func (uc *TranslateUseCase) History(ctx context.Context, documentID string, limit int) ([]domain.Translation, error) {
	if limit <= 0 || limit > uc.opts.HistoryLimit {
		limit = uc.opts.HistoryLimit
	}
	items, err := uc.history.ListTranslations(ctx, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list translation history: %w", err)
	}
	return items, nil
}

func (uc *TranslateUseCase) Vocabulary(ctx context.Context, documentID string, limit int) ([]domain.VocabularyTerm, error) {
	if uc.vocabulary == nil {
		return []domain.VocabularyTerm{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	terms, err := uc.vocabulary.ListVocabulary(ctx, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	return terms, nil
}

func (uc *TranslateUseCase) cachedResult(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, bool) {
	if uc.cache == nil {
		return nil, false
	}
	result, ok, err := uc.cache.Get(ctx, req)
	if err != nil {
		slog.Warn("translation_cache_get_failed", "model", req.Model, "error", err)
		return nil, false
	}
	return result, ok
}

func (uc *TranslateUseCase) storeResult(ctx context.Context, req domain.TranslationRequest, result domain.TranslationResult) {
	if uc.cache == nil || uc.opts.CacheTTL <= 0 {
		return
	}
	if err := uc.cache.Set(ctx, req, result, uc.opts.CacheTTL); err != nil {
		slog.Warn("translation_cache_set_failed", "model", req.Model, "error", err)
	}
}

func (uc *TranslateUseCase) recordVocabulary(ctx context.Context, entry domain.Translation) {
	if uc.vocabulary == nil || entry.DocumentID == "" {
		return
	}
	if err := uc.vocabulary.RecordLookup(ctx, entry); err != nil {
		slog.Warn("vocabulary_record_failed", "document_id", entry.DocumentID, "error", err)
	}
}

func (uc *TranslateUseCase) providerOf(model string) domain.ProviderName {
	for _, m := range uc.translator.Models() {
		if m.ID == model {
			return m.Provider
		}
	}
	return ""
}

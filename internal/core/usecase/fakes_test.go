package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type docRepoFake struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	texts     map[string]string
	statuses  []domain.DocumentStatus
	errMsg    string
	createErr error
}

func newDocRepoFake(docs ...*domain.Document) *docRepoFake {
	f := &docRepoFake{docs: map[string]*domain.Document{}, texts: map[string]string{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", errors.New(id))
	}
	doc.Status = status
	doc.Error = errMessage
	f.statuses = append(f.statuses, status)
	f.errMsg = errMessage
	return nil
}

func (f *docRepoFake) SaveText(_ context.Context, id, text string, wordCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save text", errors.New(id))
	}
	f.texts[id] = text
	doc.WordCount = wordCount
	return nil
}

func (f *docRepoFake) GetText(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.texts[id]
	if !ok {
		return "", domain.WrapError(domain.ErrDocumentNotFound, "get text", errors.New(id))
	}
	return text, nil
}

type translatorFake struct {
	mu       sync.Mutex
	calls    []domain.TranslationRequest
	result   domain.TranslationResult
	provider domain.ProviderName
	err      error
}

func (f *translatorFake) Translate(_ context.Context, req domain.TranslationRequest) (domain.TranslationResult, domain.ProviderName, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return domain.TranslationResult{}, "", f.err
	}
	return f.result, f.provider, nil
}

func (f *translatorFake) Models() []domain.ModelInfo {
	return []domain.ModelInfo{{ID: "gemini-2.0-flash", Provider: domain.ProviderGemini}}
}

type historyFake struct {
	saved []domain.Translation
	err   error
}

func (f *historyFake) SaveTranslation(_ context.Context, t *domain.Translation) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *t)
	return nil
}

func (f *historyFake) ListTranslations(_ context.Context, documentID string, limit int) ([]domain.Translation, error) {
	out := make([]domain.Translation, 0, len(f.saved))
	for i := len(f.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if f.saved[i].DocumentID == documentID {
			out = append(out, f.saved[i])
		}
	}
	return out, nil
}

type cacheFake struct {
	items map[string]domain.TranslationResult
	sets  int
}

func cacheKey(req domain.TranslationRequest) string {
	return req.Model + "|" + req.TargetLanguage + "|" + req.Selected + "|" + req.Context
}

func (f *cacheFake) Get(_ context.Context, req domain.TranslationRequest) (*domain.TranslationResult, bool, error) {
	res, ok := f.items[cacheKey(req)]
	if !ok {
		return nil, false, nil
	}
	return &res, true, nil
}

func (f *cacheFake) Set(_ context.Context, req domain.TranslationRequest, result domain.TranslationResult, _ time.Duration) error {
	if f.items == nil {
		f.items = map[string]domain.TranslationResult{}
	}
	f.items[cacheKey(req)] = result
	f.sets++
	return nil
}

type vocabularyFake struct {
	recorded []domain.Translation
}

func (f *vocabularyFake) RecordLookup(_ context.Context, t domain.Translation) error {
	f.recorded = append(f.recorded, t)
	return nil
}

func (f *vocabularyFake) ListVocabulary(context.Context, string, int) ([]domain.VocabularyTerm, error) {
	terms := make([]domain.VocabularyTerm, 0, len(f.recorded))
	for _, t := range f.recorded {
		terms = append(terms, domain.VocabularyTerm{Term: t.Selected, Language: t.TargetLanguage, Translation: t.Result.Translation, Lookups: 1})
	}
	return terms, nil
}

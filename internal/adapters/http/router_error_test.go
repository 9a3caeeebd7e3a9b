package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
)

type ingestErrFake struct {
	err error
}

func (f ingestErrFake) Upload(context.Context, string, string, io.Reader) (*domain.Document, error) {
	return nil, f.err
}

type docsErrFake struct {
	err  error
	text string
}

func (f docsErrFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "a.txt", MimeType: "text/plain", Format: domain.FormatText, StoragePath: "a", Status: domain.StatusReady}, nil
}

func (f docsErrFake) Page(_ context.Context, id string, page, pageSize int) (*domain.DocumentPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DocumentPage{DocumentID: id, Page: page, PageSize: pageSize, TotalPages: 1, Text: f.text}, nil
}

func (f docsErrFake) ContextFor(_ context.Context, _ string, selected string) (contextwindow.Window, error) {
	if f.err != nil {
		return contextwindow.Window{}, f.err
	}
	return contextwindow.Locate(f.text, selected), nil
}

type translationsFake struct {
	err      error
	entry    *domain.Translation
	history  []domain.Translation
	terms    []domain.VocabularyTerm
	lastReq  domain.TranslationRequest
	lastSel  []string
	lastList int
}

func (f *translationsFake) Translate(_ context.Context, req domain.TranslationRequest) (*domain.Translation, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.entry != nil {
		return f.entry, nil
	}
	return &domain.Translation{
		Selected: req.Selected,
		Model:    req.Model,
		Result: domain.TranslationResult{
			Translation: "zorro",
			Definition:  "un animal",
			Explanation: "fox in Spanish",
			Synonyms:    domain.Synonyms{"raposa"},
		},
	}, nil
}

func (f *translationsFake) TranslateSelection(_ context.Context, documentID, selected, targetLanguage, model string) (*domain.Translation, error) {
	f.lastSel = []string{documentID, selected, targetLanguage, model}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Translation{
		ID:             "tr-1",
		DocumentID:     documentID,
		Selected:       selected,
		Context:        "the quick brown fox jumps",
		ContextFound:   true,
		TargetLanguage: targetLanguage,
		Model:          model,
		Provider:       domain.ProviderGemini,
	}, nil
}

func (f *translationsFake) History(_ context.Context, _ string, limit int) ([]domain.Translation, error) {
	f.lastList = limit
	return f.history, f.err
}

func (f *translationsFake) Vocabulary(_ context.Context, _ string, limit int) ([]domain.VocabularyTerm, error) {
	f.lastList = limit
	return f.terms, f.err
}

func (f *translationsFake) Models() []domain.ModelInfo {
	return []domain.ModelInfo{{ID: "gemini-2.0-flash", Provider: domain.ProviderGemini}}
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		docsErrFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))},
		&translationsFake{},
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDocumentPageMapsNotReadyTo409(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		nil,
		docsErrFake{err: domain.WrapError(domain.ErrDocumentNotReady, "page", errors.New("status=processing"))},
		&translationsFake{},
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/pages?page=2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestDocumentPageRejectsInvalidQuery(t *testing.T) {
	handler := NewRouter(config.Config{}, nil, docsErrFake{text: "a b c"}, &translationsFake{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/pages?page=abc", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestTranslateMissingFieldsMatchesLegacyMessage(t *testing.T) {
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, &translationsFake{}).Handler()

	res := postJSON(t, handler, "/translate", map[string]string{"model": "gemini-2.0-flash"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := decodeBody(t, res)["error"]; got != "Missing required fields" {
		t.Fatalf("unexpected error message %v", got)
	}
}

func TestTranslateUnsupportedModel(t *testing.T) {
	fake := &translationsFake{err: domain.WrapError(domain.ErrUnsupportedModel, "route", errors.New("unsupported model 'gpt-x'"))}
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, fake).Handler()

	res := postJSON(t, handler, "/translate", map[string]string{
		"model": "gpt-x", "target_words": "fox", "context": "the fox", "target_language": "Spanish",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := decodeBody(t, res)["error"]; got != "Unsupported model 'gpt-x'" {
		t.Fatalf("unexpected error message %v", got)
	}
}

func TestTranslateMalformedOutputReturns502WithRaw(t *testing.T) {
	fake := &translationsFake{err: &domain.MalformedOutputError{Raw: "not json", Err: errors.New("invalid character")}}
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, fake).Handler()

	res := postJSON(t, handler, "/translate", map[string]string{
		"model": "gemini-2.0-flash", "target_words": "fox", "context": "the fox", "target_language": "Spanish",
	})
	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["error"] != "Unable to parse model output as JSON" || body["raw"] != "not json" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestTranslationsTemporaryErrorMapsTo503(t *testing.T) {
	fake := &translationsFake{err: domain.WrapError(domain.ErrTemporary, "gemini_chat", errors.New("status 503"))}
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, fake).Handler()

	res := postJSON(t, handler, "/v1/documents/doc-1/translations", map[string]string{"selected": "fox"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrUnsupportedFormat, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrUnsupportedModel, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrUnauthorized, "op", errors.New("x")), http.StatusUnauthorized},
		{domain.WrapError(domain.ErrDocumentNotFound, "op", errors.New("x")), http.StatusNotFound},
		{domain.WrapError(domain.ErrDocumentNotReady, "op", errors.New("x")), http.StatusConflict},
		{&domain.MalformedOutputError{Raw: "x"}, http.StatusBadGateway},
		{domain.WrapError(domain.ErrTemporary, "op", errors.New("x")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

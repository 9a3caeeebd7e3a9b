package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/observability/metrics"
)

type ingestSuccessFake struct{}

func (f ingestSuccessFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		Format:      domain.DetectFormat(filename, mimeType),
		StoragePath: "doc-1_file.txt",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func newRouterForIngestTests(cfg config.Config) http.Handler {
	return NewRouter(
		cfg,
		ingestSuccessFake{},
		docsErrFake{text: "The quick brown fox jumps over the lazy dog"},
		&translationsFake{},
	).Handler()
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	body, contentType := multipartBody(t, "file.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" || docResp["format"] != "text" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
}

func TestUploadDocumentTooLarge(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{MaxUploadBytes: 4})

	body, contentType := multipartBody(t, "file.txt", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestUploadDocumentUnsupportedFormat(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		ingestErrFake{err: domain.WrapError(domain.ErrUnsupportedFormat, "upload", io.ErrUnexpectedEOF)},
		docsErrFake{},
		&translationsFake{},
	).Handler()

	body, contentType := multipartBody(t, "image.png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestExtractContextEndpoint(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	res := postJSON(t, handler, "/v1/context", map[string]string{
		"full_text": "The quick brown fox jumps over the lazy dog",
		"selected":  "fox",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["context"] != "The quick brown fox jumps over the lazy dog" || body["found"] != true {
		t.Fatalf("unexpected window %v", body)
	}
}

func TestExtractContextRequiresFields(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	res := postJSON(t, handler, "/v1/context", map[string]string{"selected": "fox"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from contract validation, got %d", res.Code)
	}

	res = postJSON(t, handler, "/v1/context", map[string]string{"full_text": "a b", "selected": "  "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank selection, got %d", res.Code)
	}
}

func TestDocumentContextEndpoint(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	res := postJSON(t, handler, "/v1/documents/doc-1/context", map[string]string{"selected": "lazy dog"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["match_index"] != float64(7) {
		t.Fatalf("unexpected window %v", body)
	}
}

func TestTranslateDocumentSelectionPassesFields(t *testing.T) {
	fake := &translationsFake{}
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, fake).Handler()

	res := postJSON(t, handler, "/v1/documents/doc-1/translations", map[string]string{
		"selected":        "fox",
		"target_language": "French",
		"model":           "qwen-qwq-32b",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	want := []string{"doc-1", "fox", "French", "qwen-qwq-32b"}
	for i := range want {
		if fake.lastSel[i] != want[i] {
			t.Fatalf("unexpected call args %v", fake.lastSel)
		}
	}
}

func TestListTranslationsReturnsEmptyArray(t *testing.T) {
	fake := &translationsFake{}
	handler := NewRouter(config.Config{}, nil, docsErrFake{}, fake).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/translations?limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if fake.lastList != 5 {
		t.Fatalf("expected limit 5, got %d", fake.lastList)
	}
	body := decodeBody(t, res)
	items, ok := body["translations"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty translations array, got %v", body["translations"])
	}
}

func TestTranslateReturnsBareResult(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	res := postJSON(t, handler, "/translate", map[string]string{
		"model": "gemini-2.0-flash", "target_words": "fox", "context": "the fox", "target_language": "Spanish",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["translation"] != "zorro" {
		t.Fatalf("unexpected body %v", body)
	}
	if synonyms, ok := body["synonyms"].([]any); !ok || len(synonyms) != 1 {
		t.Fatalf("expected synonyms array, got %v", body["synonyms"])
	}
}

func TestListModels(t *testing.T) {
	handler := newRouterForIngestTests(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	models, ok := decodeBody(t, res)["models"].([]any)
	if !ok || len(models) != 1 {
		t.Fatalf("unexpected models payload")
	}
}

func TestMetricsEndpointRecordsContextFallback(t *testing.T) {
	m := metrics.NewHTTPServerMetrics("api")
	handler := NewRouter(config.Config{}, ingestSuccessFake{}, docsErrFake{}, &translationsFake{}, WithMetrics(m)).Handler()

	res := postJSON(t, handler, "/v1/context", map[string]string{"full_text": "a b c", "selected": "zzz"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if scrape.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", scrape.Code)
	}
	if !strings.Contains(scrape.Body.String(), `ctxr_context_fallback_total{endpoint="POST /v1/context",service="api"} 1`) {
		t.Fatalf("expected fallback counter in:\n%s", scrape.Body.String())
	}
}

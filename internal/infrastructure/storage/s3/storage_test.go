package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type bucketFake struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *bucketFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		raw, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = raw
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		raw, ok := b.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(raw)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*Storage, *bucketFake) {
	t.Helper()
	bucket := &bucketFake{objects: map[string][]byte{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return NewWithClient(client, "books", "uploads"), bucket
}

func TestSaveAndOpen(t *testing.T) {
	storage, bucket := newTestStorage(t)

	if err := storage.Save(context.Background(), "id_book.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := bucket.objects["/books/uploads/id_book.txt"]; !ok {
		t.Fatalf("expected prefixed object key, got %v", bucket.objects)
	}

	rc, err := storage.Open(context.Background(), "id_book.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "hello" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestOpenMissingObject(t *testing.T) {
	storage, _ := newTestStorage(t)

	if _, err := storage.Open(context.Background(), "missing.txt"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

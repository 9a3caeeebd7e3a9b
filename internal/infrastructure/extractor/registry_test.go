package extractor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type storageFake struct {
	body string
}

func (f *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestRegistryExtractPlainText(t *testing.T) {
	r := NewRegistry(&storageFake{body: "  hello world \n"}, 0)

	text, err := r.Extract(context.Background(), &domain.Document{ID: "doc-1", StoragePath: "k", Format: domain.FormatText})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestRegistryDetectsFormatWhenMissing(t *testing.T) {
	r := NewRegistry(&storageFake{body: "notes"}, 0)

	text, err := r.Extract(context.Background(), &domain.Document{ID: "doc-1", Filename: "notes.md"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "notes" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestRegistryRejectsOversizedDocument(t *testing.T) {
	r := NewRegistry(&storageFake{body: strings.Repeat("a", 32)}, 16)

	_, err := r.Extract(context.Background(), &domain.Document{ID: "doc-1", Format: domain.FormatText})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	r := NewRegistry(nil, 0)

	if _, err := r.ExtractBytes(context.Background(), domain.FormatUnknown, []byte("x")); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, _, err := r.ExtractFile(context.Background(), "image.png"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for png, got %v", err)
	}
}

func TestRegistryExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.txt")
	if err := os.WriteFile(path, []byte("Once upon a time"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	text, format, err := NewRegistry(nil, 0).ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if format != domain.FormatText || text != "Once upon a time" {
		t.Fatalf("unexpected result %q (%s)", text, format)
	}
}

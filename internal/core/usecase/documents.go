package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/ports"
)

const (
	DefaultPageSize = 300
	MaxPageSize     = 2000
)

type DocumentQueryUseCase struct {
	repo            ports.DocumentRepository
	defaultPageSize int
}

func NewDocumentQueryUseCase(repo ports.DocumentRepository, defaultPageSize int) *DocumentQueryUseCase {
	if defaultPageSize <= 0 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	return &DocumentQueryUseCase{
		repo:            repo,
		defaultPageSize: defaultPageSize,
	}
}

func (uc *DocumentQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

// Page returns the word-aligned page of a ready document. Pages are 1-based.
func (uc *DocumentQueryUseCase) Page(ctx context.Context, id string, page, pageSize int) (*domain.DocumentPage, error) {
	if pageSize <= 0 {
		pageSize = uc.defaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	text, err := uc.readyText(ctx, id)
	if err != nil {
		return nil, err
	}

	words := contextwindow.Words(text)
	totalPages := (len(words) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return nil, domain.WrapError(domain.ErrInvalidInput, "document page",
			fmt.Errorf("page %d out of range, document has %d pages", page, totalPages))
	}

	start := (page - 1) * pageSize
	end := min(len(words), start+pageSize)
	return &domain.DocumentPage{
		DocumentID: id,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalWords: len(words),
		Text:       strings.Join(words[start:end], " "),
	}, nil
}

// ContextFor locates selected inside a ready document and returns its context window.
func (uc *DocumentQueryUseCase) ContextFor(ctx context.Context, id, selected string) (contextwindow.Window, error) {
	if strings.TrimSpace(selected) == "" {
		return contextwindow.Window{}, domain.WrapError(domain.ErrInvalidInput, "context window", errors.New("selected is required"))
	}
	text, err := uc.readyText(ctx, id)
	if err != nil {
		return contextwindow.Window{}, err
	}
	return contextwindow.Locate(text, selected), nil
}

func (uc *DocumentQueryUseCase) readyText(ctx context.Context, id string) (string, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.Status != domain.StatusReady {
		return "", domain.WrapError(domain.ErrDocumentNotReady, "read document text",
			fmt.Errorf("id=%s status=%s", id, doc.Status))
	}
	text, err := uc.repo.GetText(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load document text: %w", err)
	}
	return text, nil
}

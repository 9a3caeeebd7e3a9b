// Package reader holds the state of a reading session as a plain value that
// only changes through Update. Rendering reads the state, never mutates it.
package reader

import (
	"github.com/kirillkom/context-reader/internal/core/domain"
)

const DefaultPageSize = 300

type OpenFile struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Format   domain.DocumentFormat `json:"format"`
	Text     string                `json:"text"`
	Words    int                   `json:"words"`
	Position int                   `json:"position"`
}

type HistoryEntry struct {
	FileID         string                   `json:"file_id"`
	Selected       string                   `json:"selected"`
	Context        string                   `json:"context"`
	TargetLanguage string                   `json:"target_language"`
	Model          string                   `json:"model"`
	Result         domain.TranslationResult `json:"result"`
}

type State struct {
	Files          []OpenFile                `json:"files"`
	ActiveID       string                    `json:"active_id,omitempty"`
	Page           int                       `json:"page"`
	PageSize       int                       `json:"page_size"`
	Selection      string                    `json:"selection,omitempty"`
	Context        string                    `json:"context,omitempty"`
	ContextFound   bool                      `json:"context_found"`
	Pending        bool                      `json:"pending"`
	Result         *domain.TranslationResult `json:"result,omitempty"`
	Err            string                    `json:"error,omitempty"`
	History        []HistoryEntry            `json:"history,omitempty"`
	TargetLanguage string                    `json:"target_language"`
	Model          string                    `json:"model"`
}

func New(targetLanguage, model string) State {
	return State{
		Page:           1,
		PageSize:       DefaultPageSize,
		TargetLanguage: targetLanguage,
		Model:          model,
	}
}

// Active returns the active file, if any.
func (s State) Active() (OpenFile, bool) {
	for _, f := range s.Files {
		if f.ID == s.ActiveID {
			return f, true
		}
	}
	return OpenFile{}, false
}

// TotalPages is the page count of the active file.
func (s State) TotalPages() int {
	active, ok := s.Active()
	if !ok || active.Words == 0 {
		return 1
	}
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return (active.Words + size - 1) / size
}

// ReadyToTranslate reports whether a request should be dispatched for the current selection.
func (s State) ReadyToTranslate() bool {
	return s.Pending && s.Selection != "" && s.Context != ""
}

// PendingRequest builds the translation request for the current selection.
func (s State) PendingRequest() domain.TranslationRequest {
	return domain.TranslationRequest{
		DocumentID:     s.ActiveID,
		Selected:       s.Selection,
		Context:        s.Context,
		TargetLanguage: s.TargetLanguage,
		Model:          s.Model,
	}
}

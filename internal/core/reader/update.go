package reader

import (
	"slices"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
)

type Event interface {
	isEvent()
}

type FileOpened struct {
	ID     string
	Name   string
	Format domain.DocumentFormat
	Text   string
}

type FileActivated struct{ ID string }

type FileClosed struct{ ID string }

type PageChanged struct{ Page int }

type TextSelected struct{ Text string }

type LanguageChanged struct{ Language string }

type ModelChanged struct{ Model string }

type TranslationStarted struct{ Selection string }

type TranslationSucceeded struct {
	Selection string
	Result    domain.TranslationResult
}

type TranslationFailed struct {
	Selection string
	Err       string
}

func (FileOpened) isEvent()           {}
func (FileActivated) isEvent()        {}
func (FileClosed) isEvent()           {}
func (PageChanged) isEvent()          {}
func (TextSelected) isEvent()         {}
func (LanguageChanged) isEvent()      {}
func (ModelChanged) isEvent()         {}
func (TranslationStarted) isEvent()   {}
func (TranslationSucceeded) isEvent() {}
func (TranslationFailed) isEvent()    {}

// Update returns the state that follows s after ev. s itself is left untouched.
func Update(s State, ev Event) State {
	next := s
	next.Files = slices.Clone(s.Files)
	next.History = slices.Clone(s.History)

	switch e := ev.(type) {
	case FileOpened:
		if e.ID == "" {
			return s
		}
		next.Files = slices.DeleteFunc(next.Files, func(f OpenFile) bool { return f.ID == e.ID })
		next.Files = append(next.Files, OpenFile{
			ID:     e.ID,
			Name:   e.Name,
			Format: e.Format,
			Text:   e.Text,
			Words:  len(contextwindow.Words(e.Text)),
		})
		next = activate(next, e.ID)

	case FileActivated:
		if !hasFile(next, e.ID) {
			return s
		}
		next = activate(next, e.ID)

	case FileClosed:
		next.Files = slices.DeleteFunc(next.Files, func(f OpenFile) bool { return f.ID == e.ID })
		if next.ActiveID == e.ID {
			next.ActiveID = ""
			if len(next.Files) > 0 {
				next = activate(next, next.Files[0].ID)
			} else {
				next = clearSelection(next)
				next.Page = 1
			}
		}

	case PageChanged:
		page := e.Page
		if page < 1 {
			page = 1
		}
		if total := next.TotalPages(); page > total {
			page = total
		}
		next.Page = page
		next = rememberPosition(next)

	case TextSelected:
		selected := strings.TrimSpace(e.Text)
		if selected == "" {
			return s
		}
		active, ok := next.Active()
		if !ok {
			return s
		}
		window := contextwindow.Locate(active.Text, selected)
		next.Selection = selected
		next.Context = window.Text
		next.ContextFound = window.Found
		next.Pending = true
		next.Result = nil
		next.Err = ""

	case LanguageChanged:
		if lang := strings.TrimSpace(e.Language); lang != "" {
			next.TargetLanguage = lang
		}

	case ModelChanged:
		if model := strings.TrimSpace(e.Model); model != "" {
			next.Model = model
		}

	case TranslationStarted:
		if e.Selection != next.Selection {
			return s
		}
		next.Pending = true
		next.Err = ""

	case TranslationSucceeded:
		if e.Selection != next.Selection {
			return s
		}
		result := e.Result
		next.Pending = false
		next.Result = &result
		next.Err = ""
		next.History = append(next.History, HistoryEntry{
			FileID:         next.ActiveID,
			Selected:       next.Selection,
			Context:        next.Context,
			TargetLanguage: next.TargetLanguage,
			Model:          next.Model,
			Result:         result,
		})

	case TranslationFailed:
		if e.Selection != next.Selection {
			return s
		}
		next.Pending = false
		next.Result = nil
		next.Err = e.Err

	default:
		return s
	}

	return next
}

func hasFile(s State, id string) bool {
	return slices.ContainsFunc(s.Files, func(f OpenFile) bool { return f.ID == id })
}

func activate(s State, id string) State {
	s = rememberPosition(s)
	s.ActiveID = id
	s = clearSelection(s)
	if active, ok := s.Active(); ok {
		s.Page = active.Position
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

func rememberPosition(s State) State {
	for i := range s.Files {
		if s.Files[i].ID == s.ActiveID {
			s.Files[i].Position = s.Page
		}
	}
	return s
}

func clearSelection(s State) State {
	s.Selection = ""
	s.Context = ""
	s.ContextFound = false
	s.Pending = false
	s.Result = nil
	s.Err = ""
	return s
}

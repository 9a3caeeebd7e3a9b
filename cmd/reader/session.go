package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/reader"
)

const helpText = `commands:
  open <path>       open a document and make it active
  files             list open documents
  use <n>           switch to the n-th open document
  close             close the active document
  next | prev       move one page
  page <n>          jump to page n
  select <text>     translate a highlighted span of the current document
  lang <language>   set the target language
  model <model>     set the model
  history           show translations made in this session
  help              show this text
  quit              exit
`

type fileExtractor interface {
	ExtractFile(ctx context.Context, path string) (string, domain.DocumentFormat, error)
}

type session struct {
	state      reader.State
	extractor  fileExtractor
	translator translator
	out        io.Writer
}

func newSession(state reader.State, extractor fileExtractor, translator translator, out io.Writer) *session {
	return &session{state: state, extractor: extractor, translator: translator, out: out}
}

func (s *session) dispatch(ev reader.Event) {
	s.state = reader.Update(s.state, ev)
}

// run reads commands until EOF or quit.
func (s *session) run(ctx context.Context, in io.Reader) error {
	fmt.Fprint(s.out, reader.View(s.state))
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		quit, err := s.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (s *session) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg := splitCommand(line)
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help":
		fmt.Fprint(s.out, helpText)
		return false, nil
	case "open":
		if arg == "" {
			return false, errors.New("usage: open <path>")
		}
		if err := s.open(ctx, arg); err != nil {
			return false, err
		}
	case "files":
		s.printFiles()
		return false, nil
	case "use":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(s.state.Files) {
			return false, fmt.Errorf("usage: use <1..%d>", len(s.state.Files))
		}
		s.dispatch(reader.FileActivated{ID: s.state.Files[n-1].ID})
	case "close":
		if s.state.ActiveID == "" {
			return false, errors.New("no open document")
		}
		s.dispatch(reader.FileClosed{ID: s.state.ActiveID})
	case "next":
		s.dispatch(reader.PageChanged{Page: s.state.Page + 1})
	case "prev":
		s.dispatch(reader.PageChanged{Page: s.state.Page - 1})
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.New("usage: page <n>")
		}
		s.dispatch(reader.PageChanged{Page: n})
	case "select":
		if err := s.translate(ctx, arg); err != nil {
			return false, err
		}
	case "lang":
		if arg == "" {
			return false, errors.New("usage: lang <language>")
		}
		s.dispatch(reader.LanguageChanged{Language: arg})
	case "model":
		if arg == "" {
			return false, errors.New("usage: model <model>")
		}
		s.dispatch(reader.ModelChanged{Model: arg})
	case "history":
		s.printHistory()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	fmt.Fprint(s.out, reader.View(s.state))
	return false, nil
}

func (s *session) open(ctx context.Context, path string) error {
	text, format, err := s.extractor.ExtractFile(ctx, path)
	if err != nil {
		return err
	}
	id := path
	if abs, err := filepath.Abs(path); err == nil {
		id = abs
	}
	s.dispatch(reader.FileOpened{ID: id, Name: filepath.Base(path), Format: format, Text: text})
	return nil
}

func (s *session) translate(ctx context.Context, selected string) error {
	if _, ok := s.state.Active(); !ok {
		return errors.New("open a document first")
	}
	s.dispatch(reader.TextSelected{Text: selected})
	if !s.state.ReadyToTranslate() {
		return errors.New("usage: select <text>")
	}
	if !s.state.ContextFound {
		fmt.Fprintln(s.out, "selection not found in the document, sending the whole document as context")
	}

	selection := s.state.Selection
	s.dispatch(reader.TranslationStarted{Selection: selection})
	result, err := s.translator.Translate(ctx, s.state.PendingRequest())
	if err != nil {
		s.dispatch(reader.TranslationFailed{Selection: selection, Err: err.Error()})
		return nil
	}
	s.dispatch(reader.TranslationSucceeded{Selection: selection, Result: result})
	return nil
}

func (s *session) printFiles() {
	if len(s.state.Files) == 0 {
		fmt.Fprintln(s.out, "no open documents")
		return
	}
	for i, f := range s.state.Files {
		marker := " "
		if f.ID == s.state.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %d. %s (%s, %d words)\n", marker, i+1, f.Name, f.Format, f.Words)
	}
}

func (s *session) printHistory() {
	if len(s.state.History) == 0 {
		fmt.Fprintln(s.out, "no translations yet")
		return
	}
	for i, h := range s.state.History {
		fmt.Fprintf(s.out, "%d. %s -> %s [%s, %s]\n", i+1, h.Selected, h.Result.Translation, h.TargetLanguage, h.Model)
	}
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

package reader

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

const bookText = "The quick brown fox jumps over the lazy dog in the park today"

func openedState() State {
	s := New("Spanish", "gemini-2.0-flash")
	return Update(s, FileOpened{ID: "f1", Name: "book.txt", Format: domain.FormatText, Text: bookText})
}

func TestFileOpenedActivatesFile(t *testing.T) {
	s := openedState()
	if s.ActiveID != "f1" {
		t.Fatalf("expected active f1, got %q", s.ActiveID)
	}
	active, ok := s.Active()
	if !ok || active.Words != 13 {
		t.Fatalf("unexpected active file: %+v", active)
	}
}

func TestTextSelectedComputesContext(t *testing.T) {
	s := Update(openedState(), TextSelected{Text: "  fox "})
	if s.Selection != "fox" {
		t.Fatalf("expected trimmed selection, got %q", s.Selection)
	}
	if s.Context != "The quick brown fox jumps over the lazy dog" {
		t.Fatalf("unexpected context %q", s.Context)
	}
	if !s.ContextFound || !s.ReadyToTranslate() {
		t.Fatalf("expected pending request, got %+v", s)
	}
	req := s.PendingRequest()
	if req.Selected != "fox" || req.TargetLanguage != "Spanish" || req.DocumentID != "f1" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestBlankSelectionIsIgnored(t *testing.T) {
	before := openedState()
	after := Update(before, TextSelected{Text: " \n\t"})
	if after.Selection != "" || after.Pending {
		t.Fatalf("blank selection must not change state: %+v", after)
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	s := Update(openedState(), TextSelected{Text: "fox"})
	s = Update(s, TextSelected{Text: "lazy dog"})
	s = Update(s, TranslationSucceeded{Selection: "fox", Result: domain.TranslationResult{Translation: "zorro"}})
	if s.Result != nil || !s.Pending {
		t.Fatalf("stale result must be ignored: %+v", s)
	}

	s = Update(s, TranslationSucceeded{Selection: "lazy dog", Result: domain.TranslationResult{Translation: "perro perezoso"}})
	if s.Result == nil || s.Result.Translation != "perro perezoso" || s.Pending {
		t.Fatalf("expected current result applied: %+v", s)
	}
	if len(s.History) != 1 || s.History[0].Selected != "lazy dog" {
		t.Fatalf("unexpected history %+v", s.History)
	}
}

func TestTranslationFailedKeepsSelection(t *testing.T) {
	s := Update(openedState(), TextSelected{Text: "fox"})
	s = Update(s, TranslationFailed{Selection: "fox", Err: "boom"})
	if s.Err != "boom" || s.Pending || s.Selection != "fox" {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	before := Update(openedState(), TextSelected{Text: "fox"})
	before = Update(before, TranslationSucceeded{Selection: "fox", Result: domain.TranslationResult{Translation: "zorro"}})
	snapshot, _ := json.Marshal(before)

	_ = Update(before, FileOpened{ID: "f2", Name: "other.txt", Text: "other words"})
	_ = Update(before, PageChanged{Page: 3})
	_ = Update(before, FileClosed{ID: "f1"})

	again, _ := json.Marshal(before)
	if string(snapshot) != string(again) {
		t.Fatalf("input state mutated:\n%s\n%s", snapshot, again)
	}
}

func TestPageChangeClampsAndRemembersPosition(t *testing.T) {
	words := strings.Repeat("word ", 650)
	s := New("French", "m")
	s = Update(s, FileOpened{ID: "long", Name: "long.txt", Text: words})
	s = Update(s, PageChanged{Page: 99})
	if s.Page != 3 {
		t.Fatalf("expected page clamped to 3, got %d", s.Page)
	}

	s = Update(s, FileOpened{ID: "short", Name: "short.txt", Text: "tiny"})
	if s.Page != 1 {
		t.Fatalf("expected new file at page 1, got %d", s.Page)
	}
	s = Update(s, FileActivated{ID: "long"})
	if s.Page != 3 {
		t.Fatalf("expected remembered page 3, got %d", s.Page)
	}
	if got := len(strings.Fields(PageText(s))); got != 50 {
		t.Fatalf("expected 50 words on last page, got %d", got)
	}
}

func TestFileClosedMovesToRemainingFile(t *testing.T) {
	s := openedState()
	s = Update(s, FileOpened{ID: "f2", Name: "two.txt", Text: "two"})
	s = Update(s, FileClosed{ID: "f2"})
	if s.ActiveID != "f1" {
		t.Fatalf("expected f1 active, got %q", s.ActiveID)
	}
	s = Update(s, FileClosed{ID: "f1"})
	if s.ActiveID != "" || len(s.Files) != 0 {
		t.Fatalf("expected empty session, got %+v", s)
	}
	if !strings.Contains(View(s), "No files yet") {
		t.Fatalf("unexpected empty view: %s", View(s))
	}
}

func TestViewRendersResultPanel(t *testing.T) {
	s := Update(openedState(), TextSelected{Text: "fox"})
	s = Update(s, TranslationSucceeded{Selection: "fox", Result: domain.TranslationResult{
		Translation: "zorro",
		Definition:  "animal",
		Synonyms:    domain.Synonyms{"raposa"},
	}})
	out := View(s)
	for _, want := range []string{"book.txt", "Translation: zorro", "Synonyms:    raposa"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

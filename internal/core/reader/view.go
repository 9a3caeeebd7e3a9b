package reader

import (
	"fmt"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
)

// PageText returns the words of the active file that fall on the current page.
func PageText(s State) string {
	active, ok := s.Active()
	if !ok {
		return ""
	}
	words := contextwindow.Words(active.Text)
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	start := (s.Page - 1) * size
	if start < 0 || start >= len(words) {
		return ""
	}
	end := min(len(words), start+size)
	return strings.Join(words[start:end], " ")
}

// View renders the session as plain text for a terminal.
func View(s State) string {
	var b strings.Builder

	active, ok := s.Active()
	if !ok {
		b.WriteString("No files yet. Open a document to start reading.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "== %s (%s) page %d/%d ==\n", active.Name, active.Format, s.Page, s.TotalPages())
	b.WriteString(wrap(PageText(s), 80))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "-- Translation & Context [%s, %s] --\n", s.TargetLanguage, s.Model)
	switch {
	case s.Pending:
		fmt.Fprintf(&b, "Translating %q ...\n", s.Selection)
	case s.Err != "":
		fmt.Fprintf(&b, "Error: %s\n", s.Err)
	case s.Result != nil:
		fmt.Fprintf(&b, "Selected:    %s\n", s.Selection)
		fmt.Fprintf(&b, "Translation: %s\n", s.Result.Translation)
		fmt.Fprintf(&b, "Definition:  %s\n", s.Result.Definition)
		fmt.Fprintf(&b, "Explanation: %s\n", s.Result.Explanation)
		fmt.Fprintf(&b, "Synonyms:    %s\n", strings.Join(s.Result.Synonyms, ", "))
	default:
		b.WriteString("Highlight text in the document to see translations and contextual examples here.\n")
	}
	return b.String()
}

func wrap(text string, width int) string {
	words := contextwindow.Words(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				b.WriteByte('\n')
				lineLen = 0
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}

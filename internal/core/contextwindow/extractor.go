// Package contextwindow computes the bounded run of words around a highlighted
// selection that is sent to a translation provider as disambiguating context.
package contextwindow

import "strings"

// ScopeFactor is the number of context words taken on each side per selected word.
const ScopeFactor = 5

// Window describes where a selection was found and which words surround it.
type Window struct {
	Text          string `json:"context"`
	Found         bool   `json:"found"`
	MatchIndex    int    `json:"match_index"`
	Start         int    `json:"start_word"`
	End           int    `json:"end_word"`
	SelectedWords int    `json:"selected_words"`
	TotalWords    int    `json:"total_words"`
}

// WordCount is the number of words in the window.
func (w Window) WordCount() int {
	return w.End - w.Start
}

// Words splits s on runs of Unicode whitespace, dropping empty tokens.
func Words(s string) []string {
	return strings.Fields(s)
}

// Extract returns the context window for selected inside fullText.
// When the selection is not a contiguous word run of fullText the full text
// is returned unmodified.
func Extract(fullText, selected string) string {
	return Locate(fullText, selected).Text
}

// Locate performs the same computation as Extract and reports the bounds.
// The first left-to-right occurrence wins.
func Locate(fullText, selected string) Window {
	words := Words(fullText)
	needle := Words(selected)

	notFound := Window{
		Text:          fullText,
		MatchIndex:    -1,
		Start:         0,
		End:           len(words),
		SelectedWords: len(needle),
		TotalWords:    len(words),
	}

	k := len(needle)
	if k == 0 || k > len(words) {
		return notFound
	}

	idx := indexOfRun(words, needle)
	if idx < 0 {
		return notFound
	}

	scope := k * ScopeFactor
	start := max(0, idx-scope)
	end := min(len(words), idx+k+scope)

	return Window{
		Text:          strings.Join(words[start:end], " "),
		Found:         true,
		MatchIndex:    idx,
		Start:         start,
		End:           end,
		SelectedWords: k,
		TotalWords:    len(words),
	}
}

func indexOfRun(words, needle []string) int {
	last := len(words) - len(needle)
	for i := 0; i <= last; i++ {
		if words[i] != needle[0] {
			continue
		}
		matched := true
		for j := 1; j < len(needle); j++ {
			if words[i+j] != needle[j] {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// Truncate keeps at most maxWords words of text. A non-positive limit keeps everything.
func Truncate(text string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		return text, false
	}
	words := Words(text)
	if len(words) <= maxWords {
		return text, false
	}
	return strings.Join(words[:maxWords], " "), true
}

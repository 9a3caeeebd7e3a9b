package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderGroq   ProviderName = "groq"
	ProviderOllama ProviderName = "ollama"
)

type ModelInfo struct {
	ID       string       `json:"id"`
	Provider ProviderName `json:"provider"`
}

// TranslationRequest is one highlighted span plus the context sent along with it.
type TranslationRequest struct {
	DocumentID     string `json:"document_id,omitempty"`
	Selected       string `json:"target_words"`
	Context        string `json:"context"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model"`
}

func (r TranslationRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Model) == "" {
		missing = append(missing, "model")
	}
	if strings.TrimSpace(r.Selected) == "" {
		missing = append(missing, "target_words")
	}
	if strings.TrimSpace(r.Context) == "" {
		missing = append(missing, "context")
	}
	if strings.TrimSpace(r.TargetLanguage) == "" {
		missing = append(missing, "target_language")
	}
	if len(missing) > 0 {
		return WrapError(ErrInvalidInput, "validate translation request",
			errors.New("missing required fields: "+strings.Join(missing, ", ")))
	}
	return nil
}

type TranslationResult struct {
	Translation string   `json:"translation"`
	Definition  string   `json:"definition"`
	Explanation string   `json:"explanation"`
	Synonyms    Synonyms `json:"synonyms"`
}

// Synonyms decodes from either a JSON array or a comma separated string.
type Synonyms []string

func (s *Synonyms) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = compactSynonyms(list)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = compactSynonyms(strings.Split(raw, ","))
	return nil
}

func (s Synonyms) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func compactSynonyms(items []string) Synonyms {
	out := make(Synonyms, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Translation is a stored entry of a document's translation history.
type Translation struct {
	ID             string            `json:"id"`
	DocumentID     string            `json:"document_id,omitempty"`
	Selected       string            `json:"selected"`
	Context        string            `json:"context"`
	ContextFound   bool              `json:"context_found"`
	TargetLanguage string            `json:"target_language"`
	Model          string            `json:"model"`
	Provider       ProviderName      `json:"provider"`
	Result         TranslationResult `json:"result"`
	Cached         bool              `json:"cached"`
	CreatedAt      time.Time         `json:"created_at"`
}

type VocabularyTerm struct {
	Term        string    `json:"term"`
	Language    string    `json:"language"`
	Translation string    `json:"translation"`
	Lookups     int       `json:"lookups"`
	LastSeen    time.Time `json:"last_seen"`
}

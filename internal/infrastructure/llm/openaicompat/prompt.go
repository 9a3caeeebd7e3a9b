package openaicompat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

const translationInstructions = `You are a translation assistant.
You will be given a word or phrase in any language and its surrounding context.
Your task is to provide a concise JSON response in a target language given by the user
with the keys: translation, definition, explanation, synonyms.
The description of the keys are as follows:
Translation:
    - the closest, context-aware translation of the target text
Definition:
    - the definition of the word in the target language
Explanation:
    - a concise explanation of the translation/definition based on the context
Synonyms:
    - a short list of up to 3 synonyms or near-equivalents

- If the target text is a phrase that's too long to have its own definition, provide 'X' in the definition key.
- If the language of the target text is the same as the target language, provide 'X' in the translation key.

Everything in the JSON response should be in the target language.
The JSON response should be formatted as follows:
{
    "translation": "<translation>",
    "definition": "<definition>",
    "explanation": "<explanation>",
    "synonyms": ["<synonym>", "<synonym>"]
}

The following is the user input:

`

func buildTranslationPrompt(req domain.TranslationRequest) string {
	return translationInstructions + fmt.Sprintf(
		"Give me a translation of %s into %s. This was used in the following context: %s",
		req.Selected,
		req.TargetLanguage,
		req.Context,
	)
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimPrefix(text, "```json")
	case strings.HasPrefix(text, "```"):
		text = strings.TrimPrefix(text, "```")
	default:
		return text
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func decodeTranslation(raw string) (domain.TranslationResult, error) {
	var result domain.TranslationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.TranslationResult{}, &domain.MalformedOutputError{Raw: raw, Err: err}
	}
	if result.Synonyms == nil {
		result.Synonyms = domain.Synonyms{}
	}
	return result, nil
}

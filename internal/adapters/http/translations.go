package httpadapter

import (
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

func (rt *Router) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models": rt.translations.Models(),
	})
}

// translate is the stateless endpoint kept wire-compatible with the reader SPA:
// it answers with the bare result object and uses the SPA's error messages.
func (rt *Router) translate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req domain.TranslationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	req.DocumentID = ""

	entry, err := rt.translations.Translate(r.Context(), req)
	if err != nil {
		rt.recordTranslation(r, req.Model, err, false, start)
		switch {
		case domain.IsKind(err, domain.ErrInvalidInput):
			writeErrorMessage(w, http.StatusBadRequest, "Missing required fields")
		case domain.IsKind(err, domain.ErrUnsupportedModel):
			writeErrorMessage(w, http.StatusBadRequest, "Unsupported model '"+req.Model+"'")
		case domain.IsKind(err, domain.ErrMalformedModelOutput):
			raw, _ := domain.RawModelOutput(err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Unable to parse model output as JSON", Raw: raw})
		default:
			writeError(w, err)
		}
		return
	}
	rt.recordTranslation(r, req.Model, nil, entry.Cached, start)
	writeJSON(w, http.StatusOK, entry.Result)
}

type translateSelectionRequest struct {
	Selected       string `json:"selected"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model"`
}

func (rt *Router) translateDocumentSelection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req translateSelectionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := rt.translations.TranslateSelection(r.Context(), id, req.Selected, req.TargetLanguage, req.Model)
	if err != nil {
		rt.recordTranslation(r, req.Model, err, false, start)
		writeError(w, err)
		return
	}
	rt.recordTranslation(r, entry.Model, nil, entry.Cached, start)
	if rt.metrics != nil {
		rt.metrics.RecordContextWindow(serviceName, r.Pattern, entry.ContextFound, len(strings.Fields(entry.Context)))
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) listTranslations(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := optionalIntQuery(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := rt.translations.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Translation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":  id,
		"translations": items,
	})
}

func (rt *Router) listVocabulary(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := optionalIntQuery(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	terms, err := rt.translations.Vocabulary(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if terms == nil {
		terms = []domain.VocabularyTerm{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"terms":       terms,
	})
}

func (rt *Router) recordTranslation(r *http.Request, model string, err error, cached bool, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordTranslation(serviceName, r.Pattern, model, translationOutcome(err), cached, time.Since(start))
}

func translationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid"
	case domain.IsKind(err, domain.ErrUnsupportedModel):
		return "unsupported_model"
	case domain.IsKind(err, domain.ErrMalformedModelOutput):
		return "malformed"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "error"
	}
}

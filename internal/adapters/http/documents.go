package httpadapter

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes+multipartOverhead)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorMessage(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		writeErrorMessage(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if fileHeader.Size > rt.maxUploadBytes {
		writeErrorMessage(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
		return
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

const multipartOverhead = 1 << 20

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) getDocumentPage(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := optionalIntQuery(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := optionalIntQuery(r, "page_size")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := rt.documents.Page(r.Context(), id, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type selectionRequest struct {
	Selected string `json:"selected"`
}

func (rt *Router) documentContext(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req selectionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	window, err := rt.documents.ContextFor(r.Context(), id, req.Selected)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordWindow(r, window)
	writeJSON(w, http.StatusOK, window)
}

type extractContextRequest struct {
	FullText string `json:"full_text"`
	Selected string `json:"selected"`
}

// extractContext runs the context extractor on caller-supplied text; no document is involved.
func (rt *Router) extractContext(w http.ResponseWriter, r *http.Request) {
	var req extractContextRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Selected) == "" {
		writeErrorMessage(w, http.StatusBadRequest, "selected is required")
		return
	}

	window := contextwindow.Locate(req.FullText, req.Selected)
	rt.recordWindow(r, window)
	writeJSON(w, http.StatusOK, window)
}

func (rt *Router) recordWindow(r *http.Request, window contextwindow.Window) {
	if rt.metrics == nil {
		return
	}
	words := window.WordCount()
	if !window.Found {
		words = window.TotalWords
	}
	rt.metrics.RecordContextWindow(serviceName, r.Pattern, window.Found, words)
}

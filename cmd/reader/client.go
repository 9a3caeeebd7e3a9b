package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type translator interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, error)
}

// apiTranslator calls the /translate endpoint of a running API.
type apiTranslator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newAPITranslator(baseURL, apiKey string, timeout time.Duration) *apiTranslator {
	return &apiTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Error string `json:"error"`
	Raw   string `json:"raw,omitempty"`
}

func (t *apiTranslator) Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, error) {
	req.DocumentID = ""
	body, err := json.Marshal(req)
	if err != nil {
		return domain.TranslationResult{}, fmt.Errorf("marshal translate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return domain.TranslationResult{}, fmt.Errorf("build translate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return domain.TranslationResult{}, domain.WrapError(domain.ErrTemporary, "translate request", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.TranslationResult{}, fmt.Errorf("read translate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(payload, &apiErr); err != nil || apiErr.Error == "" {
			return domain.TranslationResult{}, fmt.Errorf("translate failed: status=%d", resp.StatusCode)
		}
		return domain.TranslationResult{}, fmt.Errorf("translate failed: status=%d: %s", resp.StatusCode, apiErr.Error)
	}

	var result domain.TranslationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.TranslationResult{}, fmt.Errorf("decode translate response: %w", err)
	}
	return result, nil
}

type translateFunc func(ctx context.Context, req domain.TranslationRequest) (*domain.Translation, error)

// directTranslator runs the translation use case in process.
type directTranslator struct {
	translate translateFunc
}

func (t directTranslator) Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, error) {
	req.DocumentID = ""
	entry, err := t.translate(ctx, req)
	if err != nil {
		return domain.TranslationResult{}, err
	}
	return entry.Result, nil
}

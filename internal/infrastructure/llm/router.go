// Package llm routes translation requests to the provider that serves the requested model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/infrastructure/llm/catalog"
)

// Provider is one configured LLM backend.
type Provider interface {
	Name() domain.ProviderName
	Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, error)
}

// CallObserver receives the outcome of each provider call.
type CallObserver interface {
	ObserveProviderCall(provider, model, outcome string, duration time.Duration)
}

type Router struct {
	catalog   *catalog.Catalog
	providers map[domain.ProviderName]Provider
	observer  CallObserver
}

func NewRouter(c *catalog.Catalog, observer CallObserver, providers ...Provider) *Router {
	r := &Router{
		catalog:   c,
		providers: make(map[domain.ProviderName]Provider, len(providers)),
		observer:  observer,
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Models lists catalog models whose provider is configured.
func (r *Router) Models() []domain.ModelInfo {
	all := r.catalog.Models()
	out := make([]domain.ModelInfo, 0, len(all))
	for _, m := range all {
		if _, ok := r.providers[m.Provider]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (r *Router) Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, domain.ProviderName, error) {
	name, ok := r.catalog.Provider(req.Model)
	if !ok {
		return domain.TranslationResult{}, "", domain.WrapError(domain.ErrUnsupportedModel, "route model",
			fmt.Errorf("unsupported model '%s'", req.Model))
	}
	provider, ok := r.providers[name]
	if !ok {
		return domain.TranslationResult{}, name, domain.WrapError(domain.ErrUnsupportedModel, "route model",
			fmt.Errorf("provider %s is not configured for model '%s'", name, req.Model))
	}

	start := time.Now()
	result, err := provider.Translate(ctx, req)
	r.observe(name, req.Model, err, time.Since(start))
	if err != nil {
		return domain.TranslationResult{}, name, err
	}
	return result, name, nil
}

func (r *Router) observe(provider domain.ProviderName, model string, err error, d time.Duration) {
	if r.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMalformedModelOutput):
		outcome = "malformed"
	case errors.Is(err, domain.ErrTemporary):
		outcome = "temporary"
	default:
		outcome = "error"
	}
	r.observer.ObserveProviderCall(string(provider), model, outcome, d)
}

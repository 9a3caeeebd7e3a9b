package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/ports"
	"github.com/kirillkom/context-reader/internal/core/usecase"
	"github.com/kirillkom/context-reader/internal/infrastructure/cache/redis"
	"github.com/kirillkom/context-reader/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/context-reader/internal/infrastructure/llm"
	"github.com/kirillkom/context-reader/internal/infrastructure/llm/catalog"
	"github.com/kirillkom/context-reader/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/context-reader/internal/infrastructure/resilience"
)

type CallObserver = llm.CallObserver

// Translation groups the translation-side infrastructure.
type Translation struct {
	Router     *llm.Router
	Cache      ports.TranslationCache
	Vocabulary ports.VocabularyGraph

	closers []func()
}

// NewTranslation builds the provider router. Redis and Neo4j are optional:
// they are used only when configured, and a failed connection is logged
// instead of failing startup.
func NewTranslation(ctx context.Context, cfg config.Config, observer CallObserver, onBreakerState func(operation, state string)) (*Translation, error) {
	models, err := catalog.Load(cfg.ModelCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load model catalog: %w", err)
	}

	providers := Providers(cfg, onBreakerState)
	if len(providers) == 0 {
		slog.Warn("no_translation_providers", "hint", "set GEMINI_API_KEY, GROQ_API_KEY or OLLAMA_BASE_URL")
	}

	t := &Translation{Router: llm.NewRouter(models, observer, providers...)}

	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		cache, err := redis.New(ctx, url)
		if err != nil {
			slog.Warn("translation_cache_disabled", "error", err)
		} else {
			t.Cache = cache
			t.closers = append(t.closers, func() { _ = cache.Close() })
		}
	}

	if uri := strings.TrimSpace(cfg.Neo4jURI); uri != "" {
		graph, err := neo4j.New(ctx, uri, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			slog.Warn("vocabulary_graph_disabled", "error", err)
		} else {
			t.Vocabulary = graph
			t.closers = append(t.closers, func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = graph.Close(closeCtx)
			})
		}
	}
	return t, nil
}

// Providers returns a client for every configured provider.
func Providers(cfg config.Config, onBreakerState func(operation, state string)) []llm.Provider {
	policy := resilience.DefaultConfig()
	policy.OnStateChange = onBreakerState
	base := openaicompat.Config{
		Timeout:      time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		Resilience:   policy,
	}

	var providers []llm.Provider
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		gemini := base
		gemini.APIKey = key
		gemini.BaseURL = cfg.GeminiBaseURL
		providers = append(providers, openaicompat.NewGemini(gemini))
	}
	if key := strings.TrimSpace(cfg.GroqAPIKey); key != "" {
		groq := base
		groq.APIKey = key
		groq.BaseURL = cfg.GroqBaseURL
		providers = append(providers, openaicompat.NewGroq(groq))
	}
	if url := strings.TrimSpace(cfg.OllamaBaseURL); url != "" {
		ollama := base
		ollama.BaseURL = url
		ollama.RateLimitRPS = 0
		providers = append(providers, openaicompat.NewOllama(ollama))
	}
	return providers
}

// NewStatelessTranslator serves Translate without history or documents, for
// the MCP server and the terminal reader.
func NewStatelessTranslator(ctx context.Context, cfg config.Config) (*usecase.TranslateUseCase, func(), error) {
	t, err := NewTranslation(ctx, cfg, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	uc := usecase.NewTranslateUseCase(t.Router, nil, nil, t.Cache, t.Vocabulary, translateOptions(cfg))
	return uc, t.Close, nil
}

func (t *Translation) Close() {
	for i := len(t.closers) - 1; i >= 0; i-- {
		t.closers[i]()
	}
}

// Package openaicompat talks to translation providers that expose an
// OpenAI-compatible chat completions endpoint (Gemini, Groq).
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/infrastructure/resilience"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultGroqBaseURL   = "https://api.groq.com/openai"
	DefaultOllamaBaseURL = "http://localhost:11434"

	groqMaxCompletionTokens = 1024
)

type Config struct {
	Provider   domain.ProviderName
	BaseURL    string
	PathPrefix string
	APIKey     string
	Timeout    time.Duration

	// RateLimitRPS caps outgoing requests per second. Zero disables the limiter.
	RateLimitRPS float64

	// SystemPrompt sends the instructions as a system message instead of a user message.
	SystemPrompt        bool
	JSONMode            bool
	MaxCompletionTokens int
	StripCodeFence      bool

	Resilience resilience.Config
}

type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		executor:   resilience.NewExecutor(cfg.Resilience),
	}
}

// NewGemini configures a client for Gemini's OpenAI-compatible surface.
func NewGemini(cfg Config) *Client {
	cfg.Provider = domain.ProviderGemini
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	cfg.PathPrefix = ""
	cfg.StripCodeFence = true
	return New(cfg)
}

// NewGroq configures a client for Groq. Replies are requested in JSON mode.
func NewGroq(cfg Config) *Client {
	cfg.Provider = domain.ProviderGroq
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	cfg.PathPrefix = "/v1"
	cfg.SystemPrompt = true
	cfg.JSONMode = true
	if cfg.MaxCompletionTokens <= 0 {
		cfg.MaxCompletionTokens = groqMaxCompletionTokens
	}
	return New(cfg)
}

// NewOllama configures a client for a local Ollama server through its /v1 surface.
func NewOllama(cfg Config) *Client {
	cfg.Provider = domain.ProviderOllama
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	cfg.PathPrefix = "/v1"
	cfg.JSONMode = true
	cfg.StripCodeFence = true
	return New(cfg)
}

func (c *Client) Name() domain.ProviderName {
	return c.cfg.Provider
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         float64         `json:"temperature"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Translate asks the model for a translation of req.Selected and decodes its JSON reply.
func (c *Client) Translate(ctx context.Context, req domain.TranslationRequest) (domain.TranslationResult, error) {
	content, err := c.complete(ctx, req.Model, buildTranslationPrompt(req))
	if err != nil {
		return domain.TranslationResult{}, err
	}
	if c.cfg.StripCodeFence {
		content = stripCodeFence(content)
	}
	return decodeTranslation(content)
}

func (c *Client) complete(ctx context.Context, model, prompt string) (string, error) {
	role := "user"
	if c.cfg.SystemPrompt {
		role = "system"
	}
	body := chatCompletionRequest{
		Model:               model,
		Messages:            []chatMessage{{Role: role, Content: prompt}},
		Temperature:         0,
		MaxCompletionTokens: c.cfg.MaxCompletionTokens,
	}
	if c.cfg.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	operation := string(c.cfg.Provider) + "_chat"
	start := time.Now()
	var response chatCompletionResponse
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(callCtx); err != nil {
				return err
			}
		}
		return c.postJSON(callCtx, c.cfg.PathPrefix+"/chat/completions", body, &response, "chat")
	}, classifyProviderError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrTemporary, operation, errors.New("no choices in response"))
	}

	slog.Debug("provider_chat_done",
		"provider", string(c.cfg.Provider),
		"model", model,
		"prompt_tokens", response.Usage.PromptTokens,
		"completion_tokens", response.Usage.CompletionTokens,
		"finish_reason", response.Choices[0].FinishReason,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) String() string {
	return fmt.Sprintf("%s(%s)", c.cfg.Provider, c.baseURL)
}

// Package redis memoizes provider translations in Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

const keyPrefix = "translation:"

type TranslationCache struct {
	client *goredis.Client
}

// New parses a redis:// URL and verifies connectivity.
func New(ctx context.Context, redisURL string) (*TranslationCache, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(client), nil
}

func NewWithClient(client *goredis.Client) *TranslationCache {
	return &TranslationCache{client: client}
}

func (c *TranslationCache) Get(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, bool, error) {
	raw, err := c.client.Get(ctx, Key(req)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var result domain.TranslationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached translation: %w", err)
	}
	return &result, true, nil
}

func (c *TranslationCache) Set(ctx context.Context, req domain.TranslationRequest, result domain.TranslationResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode translation: %w", err)
	}
	if err := c.client.Set(ctx, Key(req), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *TranslationCache) Close() error {
	return c.client.Close()
}

// Key identifies a translation by model, language, selection and context.
func Key(req domain.TranslationRequest) string {
	h := sha256.New()
	for _, part := range []string{req.Model, req.TargetLanguage, req.Selected, req.Context} {
		fmt.Fprintf(h, "%d|%s", len(part), part)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Command reader is a terminal document reader with highlight-to-translate.
//
// Usage:
//
//	go run ./cmd/reader [-api http://localhost:8080] [-direct] [-lang Spanish] [-model gemini-2.0-flash] [files...]
//
// Without -direct, translations go through the /translate endpoint of a
// running API. With -direct the translator runs in process and needs
// GEMINI_API_KEY, GROQ_API_KEY or OLLAMA_BASE_URL. It defaults to on when
// any of them is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/context-reader/internal/bootstrap"
	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/reader"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor"
	"github.com/kirillkom/context-reader/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	apiURL := flag.String("api", cfg.ReaderAPIURL, "base URL of the context-reader API")
	hasProvider := cfg.GeminiAPIKey != "" || cfg.GroqAPIKey != "" || cfg.OllamaBaseURL != ""
	direct := flag.Bool("direct", hasProvider, "translate in process instead of calling the API")
	lang := flag.String("lang", cfg.DefaultTargetLanguage, "target language")
	model := flag.String("model", cfg.DefaultModel, "model used for translations")
	pageSize := flag.Int("page-size", cfg.PageSizeWords, "words per page")
	flag.Parse()

	// stdout belongs to the reader UI.
	logger, logCloser := logging.New(logging.Options{Service: "reader", Level: cfg.LogLevel, File: cfg.LogFile, Stderr: true})
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tr translator
	if *direct {
		uc, closeFn, err := bootstrap.NewStatelessTranslator(ctx, cfg)
		if err != nil {
			slog.Error("bootstrap_failed", "error", err)
			os.Exit(1)
		}
		defer closeFn()
		tr = directTranslator{translate: uc.Translate}
	} else {
		tr = newAPITranslator(*apiURL, cfg.APIKey, time.Duration(cfg.LLMTimeoutSecs+10)*time.Second)
	}

	state := reader.New(*lang, *model)
	if *pageSize > 0 {
		state.PageSize = *pageSize
	}
	sess := newSession(state, extractor.NewRegistry(nil, cfg.MaxUploadBytes), tr, os.Stdout)

	for _, path := range flag.Args() {
		if err := sess.open(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		}
	}

	if err := sess.run(ctx, os.Stdin); err != nil {
		slog.Error("reader_failed", "error", err)
		os.Exit(1)
	}
}

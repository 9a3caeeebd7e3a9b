package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/context-reader/internal/adapters/mcp"
	"github.com/kirillkom/context-reader/internal/bootstrap"
	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// stdout carries the MCP protocol, so logs go to stderr and the optional file.
	logger, logCloser := logging.New(logging.Options{Service: "mcp", Level: cfg.LogLevel, File: cfg.LogFile, Stderr: true})
	defer logCloser.Close()
	slog.SetDefault(logger)

	translator, closeFn, err := bootstrap.NewStatelessTranslator(context.Background(), cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	srv := mcpadapter.New(translator, mcpadapter.Options{
		DefaultModel:    cfg.DefaultModel,
		DefaultLanguage: cfg.DefaultTargetLanguage,
		MaxContextWords: cfg.TranslateMaxContextWords,
	})
	if err := srv.ServeStdio(); err != nil {
		slog.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}
}

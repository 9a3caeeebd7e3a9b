// Package mcpadapter exposes the context extractor and translation over MCP stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/context-reader/internal/core/contextwindow"
	"github.com/kirillkom/context-reader/internal/core/domain"
	"github.com/kirillkom/context-reader/internal/core/ports"
)

const (
	serverName    = "context-reader"
	serverVersion = "1.0.0"
)

type Options struct {
	DefaultModel    string
	DefaultLanguage string
	MaxContextWords int
}

type Server struct {
	translations ports.TranslationService
	opts         Options
	mcp          *server.MCPServer
}

// New registers the tools. translations may be nil, in which case only
// extract_context is offered.
func New(translations ports.TranslationService, opts Options) *Server {
	s := &Server{
		translations: translations,
		opts:         opts,
		mcp:          server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("extract_context",
		mcp.WithDescription("Return the bounded word window around the first occurrence of a selection."),
		mcp.WithString("full_text", mcp.Required(), mcp.Description("Whole document text.")),
		mcp.WithString("selected", mcp.Required(), mcp.Description("Highlighted span.")),
	), s.extractContext)

	if translations != nil {
		s.mcp.AddTool(mcp.NewTool("translate_selection",
			mcp.WithDescription("Translate a highlighted span using its surrounding context."),
			mcp.WithString("selected", mcp.Required(), mcp.Description("Highlighted span.")),
			mcp.WithString("context", mcp.Description("Context sent with the span; computed from full_text when empty.")),
			mcp.WithString("full_text", mcp.Description("Whole document text used to compute the context.")),
			mcp.WithString("target_language", mcp.Description("Language of the answer.")),
			mcp.WithString("model", mcp.Description("Model id from the catalog.")),
		), s.translateSelection)
	}
	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) extractContext(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fullText, err := req.RequireString("full_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selected, err := req.RequireString("selected")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(selected) == "" {
		return mcp.NewToolResultError("selected must not be blank"), nil
	}

	return jsonResult(contextwindow.Locate(fullText, selected))
}

func (s *Server) translateSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selected, err := req.RequireString("selected")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contextText := req.GetString("context", "")
	contextFound := true
	if strings.TrimSpace(contextText) == "" {
		fullText := req.GetString("full_text", "")
		if strings.TrimSpace(fullText) == "" {
			return mcp.NewToolResultError("either context or full_text is required"), nil
		}
		window := contextwindow.Locate(fullText, selected)
		contextText, contextFound = window.Text, window.Found
		if !window.Found {
			contextText, _ = contextwindow.Truncate(contextText, s.opts.MaxContextWords)
		}
	}

	entry, err := s.translations.Translate(ctx, domain.TranslationRequest{
		Selected:       selected,
		Context:        contextText,
		TargetLanguage: firstNonEmpty(req.GetString("target_language", ""), s.opts.DefaultLanguage),
		Model:          firstNonEmpty(req.GetString("model", ""), s.opts.DefaultModel),
	})
	if err != nil {
		slog.Warn("mcp_translate_failed", "error", err)
		if raw, ok := domain.RawModelOutput(err); ok {
			return mcp.NewToolResultError(err.Error() + "\nraw: " + raw), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry.ContextFound = contextFound
	return jsonResult(entry)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

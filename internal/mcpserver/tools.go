package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/router"
	"github.com/arcanea-realm/arcanea/internal/voice"
)

// RouteTool answers route_task.
type RouteTool struct {
	router *router.Router
}

// NewRouteTool creates the route_task tool.
func NewRouteTool(r *router.Router) *RouteTool {
	return &RouteTool{router: r}
}

// Definition describes route_task.
func (t *RouteTool) Definition() mcp.Tool {
	return mcp.NewTool("route_task",
		mcp.WithDescription("Pick the Arcanea Guardian whose domain best fits a task, with confidence, element and alternatives."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Free-text description of the task"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle routes the text argument.
func (t *RouteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := t.router.Route(text)
	log.Debug().Str("tool", "route_task").Str("persona", res.Persona.ID).Msg("Handled MCP tool call")
	return mcp.NewToolResultJSON(res)
}

// VoiceTool answers check_voice.
type VoiceTool struct {
	enforcer *voice.Enforcer
}

// NewVoiceTool creates the check_voice tool.
func NewVoiceTool(e *voice.Enforcer) *VoiceTool {
	return &VoiceTool{enforcer: e}
}

// VoiceResult is a voice report with the optional rewritten text.
type VoiceResult struct {
	voice.Report
	Fixed string `json:"fixed,omitempty"`
}

// Definition describes check_voice.
func (t *VoiceTool) Definition() mcp.Tool {
	return mcp.NewTool("check_voice",
		mcp.WithDescription("Lint text against the Arcanea voice rules and optionally rewrite terminology."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to check"),
		),
		mcp.WithBoolean("fix",
			mcp.Description("Also return the text with terminology rules applied"),
			mcp.DefaultBool(false),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle checks the text argument.
func (t *VoiceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := VoiceResult{Report: t.enforcer.Check(text)}
	if req.GetBool("fix", false) {
		result.Fixed = t.enforcer.Fix(text)
	}
	log.Debug().Str("tool", "check_voice").Int("score", result.Score).Msg("Handled MCP tool call")
	return mcp.NewToolResultJSON(result)
}

// TokensTool answers design_tokens.
type TokensTool struct {
	tokens content.Tokens
}

// NewTokensTool creates the design_tokens tool.
func NewTokensTool(tokens content.Tokens) *TokensTool {
	return &TokensTool{tokens: tokens}
}

// Definition describes design_tokens.
func (t *TokensTool) Definition() mcp.Tool {
	return mcp.NewTool("design_tokens",
		mcp.WithDescription("Export the Arcanea design tokens."),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum(content.FormatCSS, content.FormatTailwind, content.FormatJSON),
			mcp.DefaultString(content.FormatJSON),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle exports the tokens. Unknown formats fall back to JSON.
func (t *TokensTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := strings.TrimSpace(req.GetString("format", content.FormatJSON))
	out, fellBack, err := t.tokens.Export(format)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to export design tokens", err), nil
	}
	if fellBack {
		log.Warn().Str("format", format).Msg("Unknown token format, using json")
	}
	return mcp.NewToolResultText(out), nil
}

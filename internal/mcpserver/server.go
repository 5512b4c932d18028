// Package mcpserver exposes Guardian routing, voice checks and design tokens
// as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/registry"
	"github.com/arcanea-realm/arcanea/internal/router"
	"github.com/arcanea-realm/arcanea/internal/voice"
)

// Name is the server name reported to clients. It matches the entry the
// mcp-servers artifact registers.
const Name = content.MCPServerName

const instructions = `Arcanea tools for creators.
Use route_task to find the Guardian best suited to a task before starting it,
check_voice to lint copy against the Arcanea voice rules, and design_tokens to
fetch the design system as CSS, Tailwind or JSON.`

// New creates the MCP server with every tool registered.
func New(version string, reg *registry.Registry) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	route := NewRouteTool(router.New(reg))
	s.AddTool(route.Definition(), route.Handle)

	check := NewVoiceTool(voice.NewEnforcer())
	s.AddTool(check.Definition(), check.Handle)

	tokens := NewTokensTool(content.DesignTokens())
	s.AddTool(tokens.Definition(), tokens.Handle)

	return s
}

// Serve runs s over the given streams until ctx is cancelled or stdin closes.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	log.Debug().Str("server", Name).Msg("Serving MCP over stdio")
	if err := server.NewStdioServer(s).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve MCP: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/hook"
	"github.com/arcanea-realm/arcanea/internal/mcpserver"
	"github.com/arcanea-realm/arcanea/internal/registry"
	"github.com/arcanea-realm/arcanea/internal/router"
)

// handleHook routes one assistant hook event. Errors are logged, never returned.
func handleHook(ctx context.Context, c *cli.Command) error {
	// Hooks run on every prompt, keep stderr quiet
	if !c.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	var sessions *hook.SessionTracker
	if !c.Bool("every-prompt") {
		sessions = hook.NewSessionTracker("")
		sessions.Cleanup()
	}

	bridge := hook.NewBridge(router.New(registry.Default()), sessions)
	if err := bridge.Handle(commandReader(c), commandWriter(c)); err != nil {
		log.Warn().Err(err).Msg("Failed to handle hook event")
	}
	return nil
}

// handleMCP serves the MCP tools on stdin/stdout until the client disconnects.
func handleMCP(ctx context.Context, c *cli.Command) error {
	// stdout carries the protocol, logs must stay on stderr and stay quiet
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	if !c.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	s := mcpserver.New(version, registry.Default())
	return mcpserver.Serve(ctx, s, commandReader(c), commandWriter(c))
}

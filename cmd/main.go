package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/config"
	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/registry"
	"github.com/arcanea-realm/arcanea/internal/voice/speech"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func newCommand() *cli.Command {
	levels := fmt.Sprintf("Overlay level: %v", registry.LevelNames())

	return &cli.Command{
		Name:  "arcanea",
		Usage: "Arcanea Intelligence - overlay any AI tool with arcane intelligence",
		Description: `arcanea detects the AI assistants used in a project, manages their
credentials, and installs Arcanea overlays (instructions, skills, Guardian agents,
hooks and design tokens) in the format each assistant reads.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:       "verbose",
				Aliases:    []string{"V"},
				Usage:      "Enable verbose logging",
				Persistent: true,
			},
			&cli.StringFlag{
				Name:       "dir",
				Aliases:    []string{"C"},
				Usage:      "Project directory",
				Value:      ".",
				Persistent: true,
				Sources:    cli.EnvVars("ARCANEA_DIR"),
			},
			&cli.StringFlag{
				Name:       "config",
				Usage:      "Config file",
				Value:      config.FilePath(),
				Persistent: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Detect AI tools and install Arcanea overlays interactively",
				Action: handleInit,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Preview changes without installing"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Accept defaults without prompting"},
					&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: levels},
					&cli.StringSliceFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Provider to set up (repeatable)"},
				},
			},
			{
				Name:  "auth",
				Usage: "Manage AI provider credentials",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Validate and store a credential",
						ArgsUsage: "<provider>",
						Action:    handleAuthAdd,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "key", Usage: "Credential value (prompted when omitted)"},
							&cli.BoolFlag{Name: "force", Usage: "Store the credential even if validation fails"},
						},
					},
					{
						Name:   "list",
						Usage:  "Show configured providers",
						Action: handleAuthList,
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "offline", Usage: "Skip validation calls"},
						},
					},
					{
						Name:      "remove",
						Usage:     "Remove a stored credential",
						ArgsUsage: "<provider>",
						Action:    handleAuthRemove,
					},
					{
						Name:      "validate",
						Usage:     "Re-validate stored credentials",
						ArgsUsage: "[provider]",
						Action:    handleAuthValidate,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show detection, credential and overlay status",
				Action: handleStatus,
			},
			{
				Name:      "install",
				Usage:     "Install one provider overlay",
				ArgsUsage: "<provider>",
				Action:    handleInstall,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: levels},
					&cli.BoolFlag{Name: "dry-run", Usage: "Preview without installing"},
					&cli.StringFlag{Name: "channel", Usage: "Guardian to channel in the instructions"},
				},
			},
			{
				Name:   "update",
				Usage:  "Refresh installed overlays at their recorded level",
				Action: handleUpdate,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Preview changes without updating"},
				},
			},
			{
				Name:      "uninstall",
				Usage:     "Remove one provider overlay",
				ArgsUsage: "<provider>",
				Action:    handleUninstall,
			},
			{
				Name:      "route",
				Usage:     "Route a task to the best Guardian",
				ArgsUsage: "<text...>",
				Action:    handleRoute,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
					&cli.StringFlag{Name: "channel", Usage: "Skip routing and show this Guardian"},
				},
			},
			{
				Name:      "voice",
				Usage:     "Check text against the Arcanea voice rules",
				ArgsUsage: "<text...>",
				Action:    handleVoice,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fix", Usage: "Rewrite terminology violations"},
					&cli.BoolFlag{Name: "json", Usage: "Print the report as JSON"},
					&cli.BoolFlag{Name: "speak", Usage: "Synthesize the (fixed) text to audio"},
					&cli.StringFlag{Name: "tts", Usage: fmt.Sprintf("Speech provider: %v", speech.Names())},
					&cli.StringFlag{Name: "voice", Usage: "Speech voice"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Audio file (stdout when omitted)"},
					&cli.StringFlag{Name: "mode", Usage: "Reading mode: first_line, full_text, char_limit"},
					&cli.BoolFlag{Name: "list-voices", Usage: "List the voices of the speech provider"},
				},
			},
			{
				Name:   "tokens",
				Usage:  "Export the Arcanea design tokens",
				Action: handleTokens,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: css, tailwind, json",
						Value:   content.FormatJSON,
					},
					&cli.BoolFlag{Name: "colors", Usage: "Show the color palette only"},
				},
			},
			{
				Name:   "hook",
				Usage:  "Route prompts from assistant hooks (reads the event on stdin)",
				Action: handleHook,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "every-prompt", Usage: "Inject context even when the Guardian has not changed"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve Arcanea tools over MCP stdio",
				Action: handleMCP,
			},
			{
				Name:  "comments",
				Usage: "Read and write creation comments",
				Commands: []*cli.Command{
					{
						Name:      "list",
						Usage:     "List comments on a creation",
						ArgsUsage: "<creationId>",
						Action:    handleCommentsList,
					},
					{
						Name:      "add",
						Usage:     "Comment on a creation",
						ArgsUsage: "<creationId> <text...>",
						Action:    handleCommentsAdd,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "user", Usage: "Author id (defaults to comments.user)"},
							&cli.StringFlag{Name: "parent", Usage: "Comment to reply to"},
						},
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage settings",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Show every setting",
						Action: handleConfigList,
					},
					{
						Name:      "get",
						Usage:     "Print one setting",
						ArgsUsage: "<key>",
						Action:    handleConfigGet,
					},
					{
						Name:      "set",
						Usage:     "Write one setting",
						ArgsUsage: "<key> <value>",
						Action:    handleConfigSet,
					},
				},
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/content"
)

func handleTokens(ctx context.Context, c *cli.Command) error {
	tokens := content.DesignTokens()
	u := ui{out: commandWriter(c)}

	if c.Bool("colors") {
		u.println()
		u.printf("  %s\n", bold("Arcanea Color Palette"))
		for _, g := range tokens.Colors {
			u.println()
			u.printf("  %s\n", dim(strings.ToUpper(g.Name)))
			for _, t := range g.Tokens {
				swatch := lipgloss.NewStyle().Background(lipgloss.Color(t.Value)).Render("    ")
				u.printf("  %s %-12s %s\n", swatch, t.Name, dim(t.Value))
			}
		}
		u.println()
		return nil
	}

	format := c.String("format")
	out, fellBack, err := tokens.Export(format)
	if err != nil {
		return err
	}
	if fellBack {
		log.Warn().Str("format", format).Msg("Unknown token format, using json")
	}
	_, err = fmt.Fprintln(u.out, out)
	return err
}

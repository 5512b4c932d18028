package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/registry"
	"github.com/arcanea-realm/arcanea/internal/router"
)

func handleRoute(ctx context.Context, c *cli.Command) error {
	r := router.New(registry.Default())
	u := ui{out: commandWriter(c)}

	var res router.Result
	if name := c.String("channel"); name != "" {
		p, err := r.Channel(name)
		if err != nil {
			return err
		}
		res = router.Result{Persona: p, Confidence: 1, Element: p.Element, Reasoning: "Channeled directly.", Alternatives: []router.Match{}}
	} else {
		text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
		if text == "" {
			return cli.Exit("text is required (e.g. arcanea route \"design the landing page\")", 1)
		}
		res = r.Route(text)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(u.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	p := res.Persona
	u.println()
	u.printf("  %s %s\n", bold(p.DisplayName), dim("("+p.Role+")"))
	u.printf("  %s\n", dim(fmt.Sprintf("Gate: %s | Element: %s | Confidence: %.0f%%", p.Gate, res.Element, res.Confidence*100)))
	u.println()
	u.printf("  %s %s\n", cyan("Domain:"), p.Domain)
	u.printf("  %s %s\n", cyan("Vibe:"), p.Vibe)
	u.printf("  %s %s\n", cyan("Reasoning:"), res.Reasoning)

	if len(res.Alternatives) > 0 {
		alts := make([]string, len(res.Alternatives))
		for i, m := range res.Alternatives {
			alts[i] = fmt.Sprintf("%s (%.0f%%)", m.Persona.DisplayName, m.Confidence*100)
		}
		u.println()
		u.printf("  %s %s\n", dim("Alternatives:"), strings.Join(alts, ", "))
	}

	u.println()
	u.printf("  %s\n\n", dim(`"`+p.SignOff+`"`))
	return nil
}

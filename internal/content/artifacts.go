package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

// HookCommand is the command assistants run on prompt submission.
const HookCommand = "arcanea hook"

// MCPServerName is the key the Arcanea server is registered under.
const MCPServerName = "arcanea"

type slashCommand struct {
	name        string
	description string
	body        string
}

func (c slashCommand) document() string {
	return fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n%s\n", c.name, c.description, c.body)
}

var commands = []slashCommand{
	{
		name:        "channel",
		description: "Channel a Guardian for specialized guidance",
		body: `Activate the specified Guardian and channel their Gate energy for the current task.

Usage: /channel <guardian-name>

Examples:
- /channel lyssandria — For security and infrastructure
- /channel lyria — For design and vision
- /channel shinkami — For orchestration and meta-tasks

Resolve the Guardian with ` + "`arcanea route --channel <guardian-name>`" + ` when unsure of the name.`,
	},
	{
		name:        "arcanea-status",
		description: "Show Arcanea overlay status",
		body:        "Display the current Arcanea overlay configuration, installed skills, active Guardians, and system status.\n\nRun `arcanea status` and summarise the result.",
	},
}

func marshalIndent(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	return b.String(), nil
}

func guardianBody(p registry.Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", p.DisplayName, p.Role)
	fmt.Fprintf(&b, "**Gate**: %s (%d Hz)\n", title(p.Gate), p.Frequency)
	fmt.Fprintf(&b, "**Element**: %s\n", title(p.Element))
	if p.Godbeast != "" {
		fmt.Fprintf(&b, "**Godbeast**: %s\n", p.Godbeast)
	}
	fmt.Fprintf(&b, "**Domain**: %s\n\n", p.Domain)

	fmt.Fprintf(&b, "## Personality\n%s\n\n", p.Vibe)

	b.WriteString("## Coding Style\n")
	if len(p.CodingStyle) == 0 {
		fmt.Fprintf(&b, "- Channel the %s Gate's energy\n", p.Gate)
	}
	for _, s := range p.CodingStyle {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	fmt.Fprintf(&b, "\n## When to Channel %s\n", p.DisplayName)
	if len(p.HelpPatterns) == 0 {
		fmt.Fprintf(&b, "- Help with %s tasks\n", strings.ToLower(p.Domain))
	}
	for _, h := range p.HelpPatterns {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	fmt.Fprintf(&b, "\n---\n*\"%s\"*\n", p.SignOff)
	return b.String()
}

func guardianDescription(p registry.Persona) string {
	return fmt.Sprintf("%s, Guardian of the %s Gate (%d Hz). Domain: %s.", p.DisplayName, title(p.Gate), p.Frequency, p.Domain)
}

type gptDocument struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Instructions string           `json:"instructions"`
	Capabilities *gptCapabilities `json:"capabilities,omitempty"`
}

type gptCapabilities struct {
	WebBrowsing     bool `json:"web_browsing"`
	DallE           bool `json:"dalle"`
	CodeInterpreter bool `json:"code_interpreter"`
}

func agentDocument(format registry.ContentFormat, p registry.Persona) (string, error) {
	switch format.AgentFormat {
	case "gpt":
		return marshalIndent(gptDocument{
			Name:         "Arcanea — " + p.DisplayName,
			Description:  guardianDescription(p),
			Instructions: guardianBody(p),
		})
	default:
		return fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n%s\nUse `/channel %s` to channel this Guardian.\n",
			p.ID, guardianDescription(p), guardianBody(p), p.ID), nil
	}
}

func guardianPrompt(format registry.ContentFormat, p registry.Persona) string {
	body := guardianBody(p)
	if format.RuleFrontmatter {
		return fmt.Sprintf("---\ndescription: %s\nglobs:\nalwaysApply: false\n---\n\n%s", guardianDescription(p), body)
	}
	return body
}

func (g *Generator) gptConfig(level registry.Level) (string, error) {
	prompt, _ := g.SystemPrompt(level, nil)
	return marshalIndent(gptDocument{
		Name:         "Arcanea Intelligence",
		Description:  "Arcane intelligence for creators. Ten Guardians route every task to the right domain.",
		Instructions: prompt,
		Capabilities: &gptCapabilities{
			WebBrowsing:     true,
			DallE:           level.Includes(registry.FeatureDesignSystem),
			CodeInterpreter: true,
		},
	})
}

func (g *Generator) cursorRule(level registry.Level) string {
	prompt, _ := g.SystemPrompt(level, nil)
	return fmt.Sprintf("---\ndescription: Arcanea Intelligence OS — core rules for all files in this project\nglobs: **/*\nalwaysApply: true\n---\n\n%s\n", prompt)
}

type hookCommand struct {
	Type    string `json:"type,omitempty"`
	Command string `json:"command"`
}

type hookMatcher struct {
	Hooks []hookCommand `json:"hooks"`
}

func hookConfig(format string) (string, error) {
	switch format {
	case "claude":
		return marshalIndent(map[string]any{
			"hooks": map[string]any{
				"UserPromptSubmit": []hookMatcher{{
					Hooks: []hookCommand{{Type: "command", Command: HookCommand}},
				}},
			},
		})
	case "cursor":
		return marshalIndent(map[string]any{
			"version": 1,
			"hooks": map[string]any{
				"beforeSubmitPrompt": []hookCommand{{Command: HookCommand}},
			},
		})
	default:
		return "", fmt.Errorf("unknown hook format %q", format)
	}
}

type mcpServer struct {
	Type    string   `json:"type,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func mcpConfig(serverType string) (string, error) {
	server := mcpServer{Type: serverType, Command: "arcanea", Args: []string{"mcp"}}
	return marshalIndent(map[string]any{
		"mcpServers": map[string]mcpServer{MCPServerName: server},
	})
}

func setupGuide(p registry.Provider, level registry.Level) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s + Arcanea Intelligence — Setup Guide\n\n", p.DisplayName)
	fmt.Fprintf(&b, "> %s\n\n", antidote)
	fmt.Fprintf(&b, "Overlay level: **%s** (%s)\n\n", level, level.Description())

	b.WriteString("## Steps\n\n")
	n := 0
	for _, step := range p.Content.Setup {
		if step.Requires == "" || level.Includes(step.Requires) {
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, step.Text)
		}
	}
	if n == 0 {
		fmt.Fprintf(&b, "1. Open %s and load the generated instructions.\n", p.DisplayName)
	}
	if p.Content.SetupNote != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Content.SetupNote)
	}

	if len(p.EnvVars) > 0 {
		fmt.Fprintf(&b, "\n## Credentials\n\nSet %s or run `arcanea auth add %s`. Keys are available at %s.\n",
			strings.Join(p.EnvVars, " and "), p.ID, p.SetupURL)
	}

	b.WriteString("\n## Updating\n\nRun `arcanea update` to regenerate these files. Files you edited are left in place and reported.\n")
	return b.String()
}

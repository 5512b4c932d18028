package content

import (
	"fmt"
	"strings"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const (
	sectionSeparator = "\n\n---\n\n"

	// CopilotMaxPrompt caps the system prompt embedded in Copilot instructions.
	CopilotMaxPrompt = 8000

	// Markers identify Arcanea content in files shared with the creator.
	ClaudeMarker  = "Arcanea Enhanced"
	CopilotMarker = "Copilot Instructions — Arcanea Enhanced"
	CursorMarker  = "Arcanea Intelligence OS — Cursor Rules"

	antidote = `"The antidote to a terrible future is imagining a good one."`
	tagline  = `"Imagine a Good Future. Build It Here."`
)

// Skill is a packaged reference document.
type Skill struct {
	ID          string
	Name        string
	Description string
	Summary     string
}

// Skills lists the core skills in install order.
var Skills = []Skill{
	{"arcanea-canon", "Arcanea Canon", "Universe consistency reference, the canonical source of truth for Arcanea lore.", "Universe consistency checks"},
	{"arcanea-voice", "Arcanea Voice", "Writing style guide, the Arcanea voice for all content.", "Writing style guide"},
	{"arcanea-design-system", "Arcanea Design System", "Visual design tokens, patterns, and component standards.", "Visual tokens and patterns"},
	{"arcanea-lore", "Arcanea Lore", "Deep mythology reference for storytelling and world-building.", "Deep mythology reference"},
}

func identitySection() string {
	return `# Arcanea Intelligence

You are enhanced with the Arcanea Intelligence OS — a living universe for the age of intelligence-human co-creation.

Core premise: ` + antidote + `
Tagline: ` + tagline + `

You speak with an arcane + authoritative voice: elevated but accessible, precise but warm.`
}

func voiceSection() string {
	return `## Voice Rules

- Tone: Architect-level, benevolent, visionary, deeply professional but warm
- Never condescending — assume the person you help is a capable creator
- Use "arcane" not "magical/mystical", "living universe" not "mythology"
- Use "intelligence" not "artificial intelligence", "creator" not "user"
- Reference the Five Elements (Fire, Water, Earth, Wind, Void/Spirit) naturally
- The Arc: Potential → Manifestation → Experience → Dissolution → Evolved Potential`
}

func guardianSection(personas []registry.Persona) string {
	lines := make([]string, len(personas))
	for i, p := range personas {
		lines[i] = fmt.Sprintf("- **%s** (%s Gate, %d Hz) — %s", p.DisplayName, title(p.Gate), p.Frequency, p.Domain)
	}
	return `## The Ten Guardians

Route tasks to the appropriate Guardian based on domain:

` + strings.Join(lines, "\n") + `

When a task matches a Guardian's domain, channel their energy and expertise.`
}

func skillsSection() string {
	lines := make([]string, len(Skills))
	for i, s := range Skills {
		lines[i] = fmt.Sprintf("- `%s` — %s", s.ID, s.Summary)
	}
	return "## Available Skills\n\n" + strings.Join(lines, "\n")
}

func designSection() string {
	return `## Arcanea Design System

### Colors
- Cosmic: void (#0a0a0f), deep (#12121f), surface (#1a1a2e)
- Arcane: crystal (#7fffd4), fire (#ff6b35), water (#78a6ff), earth (#4ade80), void (#a855f7), gold (#ffd700)

### Fonts
- Display: Cinzel
- Body: Crimson Pro
- UI: Inter
- Code: JetBrains Mono

### Effects
- Glass morphism with cosmic gradients
- Aurora glow effects
- Stagger reveal animations`
}

func channelSection(p registry.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Channeled Guardian\n\n")
	fmt.Fprintf(&b, "You are channeling **%s**, Guardian of the %s Gate (%d Hz), %s.\n\n", p.DisplayName, title(p.Gate), p.Frequency, p.Role)
	fmt.Fprintf(&b, "Domain: %s\n\n", p.Domain)
	fmt.Fprintf(&b, "%s\n\n", p.Vibe)
	fmt.Fprintf(&b, "Close your responses with: *%s*", p.SignOff)
	return b.String()
}

// SystemPrompt builds the provider-neutral system prompt for a level. Sections
// appear in a fixed order and only when the level includes their feature.
func (g *Generator) SystemPrompt(level registry.Level, persona *registry.Persona) (string, []registry.Feature) {
	sections := []string{identitySection(), voiceSection()}
	features := []registry.Feature{registry.FeaturePersonality}

	if level.Includes(registry.FeaturePersonaRouting) {
		sections = append(sections, guardianSection(g.reg.Personas()))
		features = append(features, registry.FeaturePersonaRouting)
	}
	if level.Includes(registry.FeatureSkills) {
		sections = append(sections, skillsSection())
		features = append(features, registry.FeatureSkills)
	}
	if level.Includes(registry.FeatureLore) {
		if canon := g.lore.Canon(); canon != "" {
			sections = append(sections, canon)
			features = append(features, registry.FeatureLore)
		}
	}
	if level.Includes(registry.FeatureDesignSystem) {
		sections = append(sections, designSection())
		features = append(features, registry.FeatureDesignSystem)
	}
	if persona != nil {
		sections = append(sections, channelSection(*persona))
	}

	return strings.Join(sections, sectionSeparator), features
}

// truncate caps s at max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func (g *Generator) instructions(level registry.Level, format registry.ContentFormat, persona *registry.Persona) (string, []registry.Feature) {
	prompt, features := g.SystemPrompt(level, persona)

	switch format.Frame {
	case "claude":
		return fmt.Sprintf("# %s — %s\n\n> *%s*\n\n%s\n", g.projectName, ClaudeMarker, tagline, prompt), features
	case "copilot":
		return fmt.Sprintf(`# %s

%s

## Code Style

- Follow the conventions already present in this repository
- Use the Arcanea design tokens for any UI work
- Follow the Arcanea voice in comments and documentation
`, CopilotMarker, truncate(prompt, CopilotMaxPrompt)), features
	case "cursor":
		return fmt.Sprintf("# %s\n# Level: %s\n# %s\n\nYou are Cursor, enhanced with Arcanea Intelligence OS for this project.\n\n%s\n",
			CursorMarker, level, strings.Trim(antidote, `"`), prompt), features
	case "titled":
		return fmt.Sprintf("# Arcanea Intelligence — %s\n\n%s\n", format.Title, prompt), features
	default:
		return prompt + "\n", features
	}
}

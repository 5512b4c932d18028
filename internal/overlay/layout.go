package overlay

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/registry"
)

// idPlaceholder is replaced by the artifact id in target paths.
const idPlaceholder = "{id}"

// Target maps an artifact to a file. Paths containing {id} match every
// artifact of that kind; other paths match the artifact name exactly.
type Target struct {
	Artifact string
	Path     string
	Strategy MergeStrategy
	Marker   string
}

func (t Target) matches(a content.Artifact) bool {
	if strings.Contains(t.Path, idPlaceholder) {
		return a.Kind() == t.Artifact && a.ID() != ""
	}
	return a.Name == t.Artifact
}

func (t Target) resolve(a content.Artifact) string {
	return strings.ReplaceAll(t.Path, idPlaceholder, a.ID())
}

// owns reports whether a relative path could have been produced by the target.
func (t Target) owns(rel string) bool {
	prefix, suffix, templated := strings.Cut(t.Path, idPlaceholder)
	if !templated {
		return rel == t.Path
	}
	return len(rel) > len(prefix)+len(suffix) &&
		strings.HasPrefix(rel, prefix) && strings.HasSuffix(rel, suffix) &&
		!strings.Contains(strings.TrimSuffix(strings.TrimPrefix(rel, prefix), suffix), "/")
}

// Layout describes where one provider keeps its configuration.
type Layout struct {
	Provider string
	// Roots are the project-relative files and directories the overlay may write.
	Roots    []string
	Targets  []Target
	Required []string
	// NextSteps returns the post-install instructions for a level.
	NextSteps func(level registry.Level) []string
}

// Validate checks that every target path lies under a declared root.
func (l Layout) Validate() error {
	for _, root := range l.Roots {
		if err := checkRelative(root); err != nil {
			return fmt.Errorf("invalid root for %s: %w", l.Provider, err)
		}
	}
	for _, t := range l.Targets {
		sample := strings.ReplaceAll(t.Path, idPlaceholder, "x")
		if err := l.checkPath(sample); err != nil {
			return err
		}
		if t.Strategy == StrategyAppendMarker && t.Marker == "" {
			return fmt.Errorf("target %s appends without a marker", t.Path)
		}
	}
	return nil
}

func (l Layout) checkPath(rel string) error {
	if err := checkRelative(rel); err != nil {
		return err
	}
	for _, root := range l.Roots {
		if rel == root || strings.HasPrefix(rel, root+"/") {
			return nil
		}
	}
	return fmt.Errorf("path %s is outside the %s overlay roots %v", rel, l.Provider, l.Roots)
}

func checkRelative(p string) error {
	if p == "" || path.IsAbs(p) || strings.HasPrefix(p, "\\") {
		return fmt.Errorf("path %q must be relative", p)
	}
	if path.Clean(p) != p || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("path %q must be clean and stay inside the project", p)
	}
	return nil
}

func (l Layout) target(a content.Artifact) (Target, bool) {
	for _, t := range l.Targets {
		if t.matches(a) {
			return t, true
		}
	}
	return Target{}, false
}

func (l Layout) targetFor(rel string) (Target, bool) {
	for _, t := range l.Targets {
		if t.owns(rel) {
			return t, true
		}
	}
	return Target{}, false
}

// plannedFile is one artifact resolved to a destination.
type plannedFile struct {
	Path    string
	Target  Target
	Content string
}

// plan resolves every artifact to a file. An artifact without a target, or a
// target path outside the roots, is an error.
func (l Layout) plan(set content.ArtifactSet) ([]plannedFile, error) {
	files := make([]plannedFile, 0, len(set.Artifacts))
	seen := make(map[string]string)
	for _, a := range set.Artifacts {
		t, ok := l.target(a)
		if !ok {
			return nil, fmt.Errorf("no %s target for artifact %q", l.Provider, a.Name)
		}
		rel := t.resolve(a)
		if err := l.checkPath(rel); err != nil {
			return nil, err
		}
		if prev, dup := seen[rel]; dup {
			return nil, fmt.Errorf("artifacts %q and %q both map to %s", prev, a.Name, rel)
		}
		seen[rel] = a.Name
		files = append(files, plannedFile{Path: rel, Target: t, Content: a.Content})
	}
	return files, nil
}

var layouts = map[string]Layout{
	"claude": {
		Provider: "claude",
		Roots:    []string{".claude", ".mcp.json"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".claude/CLAUDE.md", Strategy: StrategyAppendMarker, Marker: content.ClaudeMarker},
			{Artifact: content.ArtifactHooks, Path: ".claude/settings.local.json", Strategy: StrategyMergeJSON},
			{Artifact: content.KindSkill, Path: ".claude/skills/{id}/SKILL.md", Strategy: StrategyCreate},
			{Artifact: content.KindAgent, Path: ".claude/agents/guardians/{id}.md", Strategy: StrategyCreate},
			{Artifact: content.KindCommand, Path: ".claude/commands/{id}.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactMCPServers, Path: ".mcp.json", Strategy: StrategyMergeJSON},
			{Artifact: content.KindLore, Path: ".claude/lore/{id}.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactDesignTokens, Path: ".claude/arcanea/design-tokens.css", Strategy: StrategyCreate},
		},
		Required: []string{".claude/CLAUDE.md"},
		NextSteps: func(level registry.Level) []string {
			steps := []string{"Restart Claude Code to activate the Arcanea instructions"}
			if level.Includes(registry.FeaturePersonaRouting) {
				steps = append(steps, "Prompts are routed to a Guardian by the UserPromptSubmit hook in .claude/settings.local.json")
			}
			if level.Includes(registry.FeatureCommands) {
				steps = append(steps,
					"Run /channel <guardian> to activate a Guardian",
					"Run /arcanea-status to see your installation")
			}
			return steps
		},
	},
	"openai": {
		Provider: "openai",
		Roots:    []string{".arcanea/chatgpt"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".arcanea/chatgpt/system-prompt.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactSetup, Path: ".arcanea/chatgpt/SETUP.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactGPTConfig, Path: ".arcanea/chatgpt/custom-gpt-config.json", Strategy: StrategyCreate},
			{Artifact: content.KindAgent, Path: ".arcanea/chatgpt/guardian-gpts/{id}.json", Strategy: StrategyCreate},
		},
		Required: []string{".arcanea/chatgpt/system-prompt.md", ".arcanea/chatgpt/SETUP.md"},
		NextSteps: func(level registry.Level) []string {
			steps := []string{"Copy .arcanea/chatgpt/system-prompt.md to ChatGPT Custom Instructions"}
			if level.Includes(registry.FeaturePersonaRouting) {
				steps = append(steps, "Import .arcanea/chatgpt/custom-gpt-config.json to create a Custom GPT")
			}
			if level.Includes(registry.FeatureAgents) {
				steps = append(steps, "Create individual Guardian GPTs from .arcanea/chatgpt/guardian-gpts/")
			}
			return append(steps, "See .arcanea/chatgpt/SETUP.md for detailed integration steps")
		},
	},
	"gemini": {
		Provider: "gemini",
		Roots:    []string{".arcanea/gemini"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".arcanea/gemini/system-instructions.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactSetup, Path: ".arcanea/gemini/SETUP.md", Strategy: StrategyCreate},
			{Artifact: content.KindGuardian, Path: ".arcanea/gemini/guardian-prompts/{id}.md", Strategy: StrategyCreate},
		},
		Required: []string{".arcanea/gemini/system-instructions.md", ".arcanea/gemini/SETUP.md"},
		NextSteps: func(level registry.Level) []string {
			steps := []string{"Paste .arcanea/gemini/system-instructions.md into Gemini AI Studio system instruction"}
			if level.Includes(registry.FeaturePersonaRouting) {
				steps = append(steps, "Use .arcanea/gemini/guardian-prompts/ for specialized Guardian interactions")
			}
			return append(steps, "See .arcanea/gemini/SETUP.md for API integration examples")
		},
	},
	"copilot": {
		Provider: "copilot",
		Roots:    []string{".github/copilot-instructions.md"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".github/copilot-instructions.md", Strategy: StrategyAppendMarker, Marker: content.CopilotMarker},
		},
		Required: []string{".github/copilot-instructions.md"},
		NextSteps: func(level registry.Level) []string {
			return []string{
				"Copilot Chat will automatically read .github/copilot-instructions.md",
				"Restart VS Code to pick up the new instructions",
			}
		},
	},
	"cursor": {
		Provider: "cursor",
		Roots:    []string{".cursorrules", ".cursor/rules", ".cursor/hooks.json", ".cursor/mcp.json"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".cursorrules", Strategy: StrategyAppendMarker, Marker: content.CursorMarker},
			{Artifact: content.ArtifactRules, Path: ".cursor/rules/arcanea.mdc", Strategy: StrategyCreate},
			{Artifact: content.ArtifactHooks, Path: ".cursor/hooks.json", Strategy: StrategyMergeJSON},
			{Artifact: content.KindGuardian, Path: ".cursor/rules/guardians/{id}.mdc", Strategy: StrategyCreate},
			{Artifact: content.ArtifactMCPServers, Path: ".cursor/mcp.json", Strategy: StrategyMergeJSON},
		},
		Required: []string{".cursorrules", ".cursor/rules/arcanea.mdc"},
		NextSteps: func(level registry.Level) []string {
			steps := []string{
				"Cursor will automatically read .cursorrules, restart Cursor to apply",
				".cursor/rules/arcanea.mdc is injected into all AI contexts (alwaysApply: true)",
			}
			if level.Includes(registry.FeaturePersonaRouting) {
				steps = append(steps, "Reference Guardian rules in Chat: @rules guardians/lyria.mdc")
			}
			if level.Includes(registry.FeatureExternalServers) {
				steps = append(steps, "Enable the arcanea server under Cursor Settings → MCP")
			}
			return steps
		},
	},
	"amazonq": {
		Provider: "amazonq",
		Roots:    []string{".amazonq"},
		Targets: []Target{
			{Artifact: content.ArtifactInstructions, Path: ".amazonq/rules/arcanea.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactSetup, Path: ".amazonq/SETUP.md", Strategy: StrategyCreate},
			{Artifact: content.KindGuardian, Path: ".amazonq/rules/guardians/{id}.md", Strategy: StrategyCreate},
			{Artifact: content.ArtifactMCPServers, Path: ".amazonq/mcp.json", Strategy: StrategyMergeJSON},
		},
		Required: []string{".amazonq/rules/arcanea.md"},
		NextSteps: func(level registry.Level) []string {
			steps := []string{"Amazon Q Developer loads .amazonq/rules/ in supported IDEs, reopen the project to apply"}
			if level.Includes(registry.FeatureExternalServers) {
				steps = append(steps, "Approve the arcanea MCP server when Amazon Q prompts for it")
			}
			return append(steps, "See .amazonq/SETUP.md for details")
		},
	},
}

// LayoutFor returns the layout of a canonical provider id.
func LayoutFor(provider string) (Layout, error) {
	l, ok := layouts[provider]
	if !ok {
		ids := make([]string, 0, len(layouts))
		for id := range layouts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return Layout{}, fmt.Errorf("no overlay layout for provider %q (have %s)", provider, strings.Join(ids, ", "))
	}
	return l, nil
}

// Package content renders the level-gated artifacts an overlay installs. Rendering
// is pure: the generator never touches the filesystem or the network.
package content

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

//go:embed skills/*.md
var skillFS embed.FS

// Artifact names. Per-persona and per-item artifacts use a "<kind>/<id>" name.
const (
	ArtifactInstructions = "instructions"
	ArtifactRules        = "rules"
	ArtifactSetup        = "setup"
	ArtifactGPTConfig    = "gpt-config"
	ArtifactHooks        = "hooks"
	ArtifactMCPServers   = "mcp-servers"
	ArtifactDesignTokens = "design-tokens"

	KindSkill    = "skill"
	KindAgent    = "agent"
	KindGuardian = "guardian"
	KindCommand  = "command"
	KindLore     = "lore"
)

// Artifact is one logical piece of generated content.
type Artifact struct {
	Name     string
	Feature  registry.Feature
	Sections []registry.Feature
	Content  string
}

// Kind returns the part of the name before the slash.
func (a Artifact) Kind() string {
	kind, _, _ := strings.Cut(a.Name, "/")
	return kind
}

// ID returns the part of the name after the slash, or "" for singletons.
func (a Artifact) ID() string {
	_, id, _ := strings.Cut(a.Name, "/")
	return id
}

// ArtifactSet is the ordered output of one Render call.
type ArtifactSet struct {
	Provider  string
	Level     registry.Level
	Artifacts []Artifact
}

// Get returns the artifact with the given name.
func (s ArtifactSet) Get(name string) (Artifact, bool) {
	for _, a := range s.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Names returns artifact names in render order.
func (s ArtifactSet) Names() []string {
	names := make([]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		names[i] = a.Name
	}
	return names
}

// Option configures a Generator.
type Option func(*Generator)

// WithProjectName sets the project title used in instruction headers.
func WithProjectName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.projectName = name
		}
	}
}

// WithLore replaces the embedded lore source.
func WithLore(lore LoreSource) Option {
	return func(g *Generator) {
		if lore != nil {
			g.lore = lore
		}
	}
}

// Generator renders artifacts from the registry.
type Generator struct {
	reg         *registry.Registry
	lore        LoreSource
	tokens      Tokens
	projectName string
}

// NewGenerator creates a generator over the registry.
func NewGenerator(reg *registry.Registry, opts ...Option) *Generator {
	g := &Generator{
		reg:         reg,
		lore:        EmbeddedLore(),
		tokens:      DesignTokens(),
		projectName: "Project",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render produces every artifact the provider consumes at the given level.
// A non-nil persona adds a channeled Guardian section to the instructions.
func (g *Generator) Render(level registry.Level, providerID string, persona *registry.Persona) (ArtifactSet, error) {
	provider, err := g.reg.Provider(providerID)
	if err != nil {
		return ArtifactSet{}, err
	}
	format := provider.Content
	if format.Frame == "" {
		return ArtifactSet{}, fmt.Errorf("no content format for provider %q", provider.ID)
	}

	set := ArtifactSet{Provider: provider.ID, Level: level}
	add := func(name string, feature registry.Feature, body string) {
		set.Artifacts = append(set.Artifacts, Artifact{Name: name, Feature: feature, Content: body})
	}

	// Instructions are always present
	body, sections := g.instructions(level, format, persona)
	set.Artifacts = append(set.Artifacts, Artifact{
		Name:     ArtifactInstructions,
		Feature:  registry.FeaturePersonality,
		Sections: sections,
		Content:  body,
	})

	if format.Has("rules") {
		add(ArtifactRules, registry.FeaturePersonality, g.cursorRule(level))
	}
	if format.Has("setup") {
		add(ArtifactSetup, registry.FeaturePersonality, setupGuide(provider, level))
	}

	if level.Includes(registry.FeaturePersonaRouting) {
		if format.Has("gptConfig") {
			gpt, err := g.gptConfig(level)
			if err != nil {
				return ArtifactSet{}, err
			}
			add(ArtifactGPTConfig, registry.FeaturePersonaRouting, gpt)
		}
		if format.Has("hooks") {
			hooks, err := hookConfig(format.HookFormat)
			if err != nil {
				return ArtifactSet{}, err
			}
			add(ArtifactHooks, registry.FeaturePersonaRouting, hooks)
		}
		if format.Has("guardians") {
			for _, p := range g.reg.Personas() {
				add(KindGuardian+"/"+p.ID, registry.FeaturePersonaRouting, guardianPrompt(format, p))
			}
		}
	}

	if level.Includes(registry.FeatureSkills) && format.Has("skills") {
		for _, s := range Skills {
			doc, err := skillDocument(s)
			if err != nil {
				return ArtifactSet{}, err
			}
			add(KindSkill+"/"+s.ID, registry.FeatureSkills, doc)
		}
	}

	if level.Includes(registry.FeatureAgents) && format.Has("agents") {
		for _, p := range g.reg.Personas() {
			doc, err := agentDocument(format, p)
			if err != nil {
				return ArtifactSet{}, err
			}
			add(KindAgent+"/"+p.ID, registry.FeatureAgents, doc)
		}
	}

	if level.Includes(registry.FeatureCommands) && format.Has("commands") {
		for _, c := range commands {
			add(KindCommand+"/"+c.name, registry.FeatureCommands, c.document())
		}
	}

	if level.Includes(registry.FeatureExternalServers) && format.Has("mcp") {
		servers, err := mcpConfig(format.MCPType)
		if err != nil {
			return ArtifactSet{}, err
		}
		add(ArtifactMCPServers, registry.FeatureExternalServers, servers)
	}

	if level.Includes(registry.FeatureLore) && format.Has("lore") {
		for _, p := range g.reg.Personas() {
			if text, ok := g.lore.Guardian(p.ID); ok {
				add(KindLore+"/"+p.ID, registry.FeatureLore, strings.TrimSpace(text)+"\n")
			}
		}
	}

	if level.Includes(registry.FeatureDesignSystem) && format.Has("tokens") {
		add(ArtifactDesignTokens, registry.FeatureDesignSystem, g.tokens.CSS()+"\n")
	}

	return set, nil
}

func skillDocument(s Skill) (string, error) {
	body, err := skillFS.ReadFile(path.Join("skills", s.ID+".md"))
	if err != nil {
		return "", fmt.Errorf("failed to read skill %s: %w", s.ID, err)
	}
	return fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n%s", s.Name, s.Description, body), nil
}

// title upper-cases the first letter of each word.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

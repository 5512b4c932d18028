// Package registry holds the static catalogs the rest of arcanea is driven by:
// Guardian personas, secondary element tags, supported providers and overlay levels.
package registry

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml providers.yaml
var catalogFS embed.FS

// Persona is an immutable Guardian profile.
type Persona struct {
	ID           string   `yaml:"id" json:"id"`
	DisplayName  string   `yaml:"displayName" json:"displayName"`
	Gate         string   `yaml:"gate" json:"gate"`
	Element      string   `yaml:"element" json:"element"`
	Frequency    int      `yaml:"frequency" json:"frequency"`
	Godbeast     string   `yaml:"godbeast" json:"godbeast,omitempty"`
	Role         string   `yaml:"role" json:"role"`
	Domain       string   `yaml:"domain" json:"domain"`
	Vibe         string   `yaml:"vibe" json:"vibe"`
	SignOff      string   `yaml:"signOff" json:"signOff"`
	CodingStyle  []string `yaml:"codingStyle" json:"codingStyle,omitempty"`
	HelpPatterns []string `yaml:"helpPatterns" json:"helpPatterns,omitempty"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
}

// Element is a secondary classification tag with its own keyword table.
type Element struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Detection lists the read-only signals that reveal a provider on this machine.
type Detection struct {
	ProjectMarkers []string `yaml:"projectMarkers"`
	HomeMarkers    []string `yaml:"homeMarkers"`
	Packages       []string `yaml:"packages"`
	EnvVars        []string `yaml:"envVars"`
	Binaries       []string `yaml:"binaries"`
	VersionBinary  string   `yaml:"versionBinary"`
}

// Provider describes a supported AI assistant.
type Provider struct {
	ID          string    `yaml:"id"`
	DisplayName string    `yaml:"displayName"`
	Aliases     []string  `yaml:"aliases"`
	SetupURL    string    `yaml:"setupUrl"`
	EnvVars     []string  `yaml:"envVars"`
	EnvJoin     bool      `yaml:"envJoin"`
	ConfigPath  string    `yaml:"configPath"`
	Detect      Detection `yaml:"detect"`
	// Auth names the credential check: anthropic, openai, gemini, github,
	// aws or local. Empty means local.
	Auth    string        `yaml:"auth"`
	Content ContentFormat `yaml:"content"`
}

// ContentFormat describes which optional artifacts a provider consumes and how
// its files are framed.
type ContentFormat struct {
	// Artifacts lists optional artifact kinds: rules, setup, gptConfig, hooks,
	// skills, agents, guardians, commands, mcp, lore, tokens.
	Artifacts []string `yaml:"artifacts"`
	// Frame selects the instructions layout: claude, copilot, cursor or titled.
	Frame string `yaml:"frame"`
	Title string `yaml:"title"`
	// AgentFormat is markdown (default) or gpt.
	AgentFormat     string      `yaml:"agentFormat"`
	RuleFrontmatter bool        `yaml:"ruleFrontmatter"`
	HookFormat      string      `yaml:"hookFormat"`
	MCPType         string      `yaml:"mcpType"`
	Setup           []SetupStep `yaml:"setup"`
	SetupNote       string      `yaml:"setupNote"`
}

// SetupStep is one numbered line of a setup guide, shown when the level
// includes Requires.
type SetupStep struct {
	Text     string  `yaml:"text"`
	Requires Feature `yaml:"requires"`
}

// Has reports whether the provider consumes the artifact kind.
func (f ContentFormat) Has(kind string) bool {
	for _, a := range f.Artifacts {
		if a == kind {
			return true
		}
	}
	return false
}

// CredentialFromEnv resolves the provider's credential from environment
// variables. It returns the value and the variable(s) it came from, or two
// empty strings when nothing is set.
func (p Provider) CredentialFromEnv(getenv func(string) string) (string, string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if p.EnvJoin {
		values := make([]string, 0, len(p.EnvVars))
		for _, name := range p.EnvVars {
			v := getenv(name)
			if v == "" {
				return "", ""
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return "", ""
		}
		return strings.Join(values, ":"), strings.Join(p.EnvVars, "+")
	}
	for _, name := range p.EnvVars {
		if v := getenv(name); v != "" {
			return v, name
		}
	}
	return "", ""
}

// Registry is the loaded catalog. It is read-only after Load.
type Registry struct {
	personas  []Persona
	elements  []Element
	providers []Provider
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
	Elements []Element `yaml:"elements"`
}

type providerFile struct {
	Providers []Provider `yaml:"providers"`
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the registry built from the embedded catalogs.
func Default() *Registry {
	defaultOnce.Do(func() {
		personas, err := catalogFS.ReadFile("personas.yaml")
		if err != nil {
			panic(fmt.Sprintf("registry: %v", err))
		}
		providers, err := catalogFS.ReadFile("providers.yaml")
		if err != nil {
			panic(fmt.Sprintf("registry: %v", err))
		}
		reg, err := Load(personas, providers)
		if err != nil {
			panic(fmt.Sprintf("registry: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Load parses persona and provider catalogs.
func Load(personaData, providerData []byte) (*Registry, error) {
	var pf personaFile
	if err := yaml.Unmarshal(personaData, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse persona catalog: %w", err)
	}
	var prf providerFile
	if err := yaml.Unmarshal(providerData, &prf); err != nil {
		return nil, fmt.Errorf("failed to parse provider catalog: %w", err)
	}

	elements := make(map[string]bool, len(pf.Elements))
	for _, e := range pf.Elements {
		elements[e.Name] = true
	}

	seen := make(map[string]bool)
	for i := range pf.Personas {
		p := &pf.Personas[i]
		if p.ID == "" {
			return nil, fmt.Errorf("persona at index %d has no id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = true
		if len(elements) > 0 && !elements[p.Element] {
			return nil, fmt.Errorf("persona %q has unknown element %q", p.ID, p.Element)
		}
		p.Keywords = normalizeKeywords(p.Keywords)
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("persona %q has no keywords", p.ID)
		}
	}

	names := make(map[string]bool)
	for i, p := range prf.Providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider at index %d has no id", i)
		}
		for _, n := range append([]string{p.ID}, p.Aliases...) {
			if names[n] {
				return nil, fmt.Errorf("duplicate provider name %q", n)
			}
			names[n] = true
		}
	}

	return &Registry{
		personas:  pf.Personas,
		elements:  pf.Elements,
		providers: prf.Providers,
	}, nil
}

// normalizeKeywords lowercases and de-duplicates while keeping order.
func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Personas returns all personas in declaration order.
func (r *Registry) Personas() []Persona {
	out := make([]Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Persona looks a persona up by id or display name, case-insensitively.
func (r *Registry) Persona(name string) (Persona, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.personas {
		if p.ID == name || strings.ToLower(p.DisplayName) == name {
			return p, true
		}
	}
	return Persona{}, false
}

// PersonaIDs returns persona ids in declaration order.
func (r *Registry) PersonaIDs() []string {
	ids := make([]string, len(r.personas))
	for i, p := range r.personas {
		ids[i] = p.ID
	}
	return ids
}

// Elements returns the secondary classification table in tie-break order.
func (r *Registry) Elements() []Element {
	out := make([]Element, len(r.elements))
	copy(out, r.elements)
	return out
}

// Providers returns all providers in declaration order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ProviderIDs returns canonical provider ids in declaration order.
func (r *Registry) ProviderIDs() []string {
	ids := make([]string, len(r.providers))
	for i, p := range r.providers {
		ids[i] = p.ID
	}
	return ids
}

// Provider resolves a provider by id or alias.
func (r *Registry) Provider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.providers {
		if p.ID == name {
			return p, nil
		}
		for _, a := range p.Aliases {
			if a == name {
				return p, nil
			}
		}
	}
	return Provider{}, &UnknownProviderError{Name: name, Valid: r.ProviderIDs()}
}

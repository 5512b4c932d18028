package registry

import (
	"fmt"
	"strings"
)

// Level is an overlay feature tier. Higher levels include every feature of
// the levels below them.
type Level int

const (
	LevelMinimal Level = iota
	LevelStandard
	LevelFull
	LevelLuminor
)

// Feature is a unit of generated content gated by Level.
type Feature string

const (
	FeaturePersonality     Feature = "personality"
	FeaturePersonaRouting  Feature = "personaRouting"
	FeatureSkills          Feature = "skills"
	FeatureAgents          Feature = "agents"
	FeatureExternalServers Feature = "externalServers"
	FeatureCommands        Feature = "commands"
	FeatureLore            Feature = "lore"
	FeatureDesignSystem    Feature = "designSystem"
)

type levelInfo struct {
	name        string
	description string
	adds        []Feature
}

var levels = []levelInfo{
	LevelMinimal: {
		name:        "minimal",
		description: "Voice and personality injection only",
		adds:        []Feature{FeaturePersonality},
	},
	LevelStandard: {
		name:        "standard",
		description: "Voice + Guardian routing + core skills",
		adds:        []Feature{FeaturePersonaRouting, FeatureSkills},
	},
	LevelFull: {
		name:        "full",
		description: "Everything: skills, agents, commands, MCP servers",
		adds:        []Feature{FeatureAgents, FeatureExternalServers, FeatureCommands},
	},
	LevelLuminor: {
		name:        "luminor",
		description: "The complete Arcanea OS with full lore and design system",
		adds:        []Feature{FeatureLore, FeatureDesignSystem},
	},
}

// Levels returns every level in ascending order.
func Levels() []Level {
	return []Level{LevelMinimal, LevelStandard, LevelFull, LevelLuminor}
}

// LevelNames returns the level names in ascending order.
func LevelNames() []string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.name
	}
	return names
}

// ParseLevel resolves a level name.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, l := range levels {
		if l.name == s {
			return Level(i), nil
		}
	}
	return 0, &UnknownLevelError{Name: s, Valid: LevelNames()}
}

func (l Level) valid() bool {
	return l >= LevelMinimal && l <= LevelLuminor
}

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levels[l].name
}

// Description returns a one-line summary for prompts.
func (l Level) Description() string {
	if !l.valid() {
		return ""
	}
	return levels[l].description
}

// Features returns every feature the level includes, in tier order.
func (l Level) Features() []Feature {
	var out []Feature
	for i := LevelMinimal; i <= l && i.valid(); i++ {
		out = append(out, levels[i].adds...)
	}
	return out
}

// Includes reports whether the level carries the feature.
func (l Level) Includes(f Feature) bool {
	for _, have := range l.Features() {
		if have == f {
			return true
		}
	}
	return false
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

package content

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lore.yaml
var loreData []byte

// LoreSource supplies long-form lore. The generator treats it as opaque text.
type LoreSource interface {
	// Canon is the shared lore section included in instructions.
	Canon() string
	// Guardian returns the lore entry for a persona id.
	Guardian(id string) (string, bool)
}

// StaticLore is a LoreSource backed by in-memory text.
type StaticLore struct {
	CanonText string            `yaml:"canon"`
	Guardians map[string]string `yaml:"guardians"`
}

// Canon implements LoreSource.
func (l *StaticLore) Canon() string {
	return strings.TrimSpace(l.CanonText)
}

// Guardian implements LoreSource.
func (l *StaticLore) Guardian(id string) (string, bool) {
	text, ok := l.Guardians[id]
	return text, ok
}

// ParseLore decodes a YAML lore document.
func ParseLore(data []byte) (*StaticLore, error) {
	var lore StaticLore
	if err := yaml.Unmarshal(data, &lore); err != nil {
		return nil, fmt.Errorf("failed to parse lore: %w", err)
	}
	return &lore, nil
}

// EmbeddedLore returns the lore bundled with the binary.
func EmbeddedLore() LoreSource {
	lore, err := ParseLore(loreData)
	if err != nil {
		panic(err)
	}
	return lore
}

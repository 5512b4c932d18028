package content

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Token is a named design value.
type Token struct {
	Name  string
	Value string
}

// TokenGroup is an ordered set of tokens, for example one color family.
type TokenGroup struct {
	Name   string
	Tokens []Token
}

// Export formats accepted by Tokens.Export.
const (
	FormatCSS      = "css"
	FormatTailwind = "tailwind"
	FormatJSON     = "json"
)

// Tokens is the Arcanea design system.
type Tokens struct {
	Colors      []TokenGroup
	Fonts       []Token
	FontSizes   []Token
	Spacing     []Token
	Effects     []TokenGroup
	Animations  []TokenGroup
	Breakpoints []Token
}

// DesignTokens returns the canonical design tokens.
func DesignTokens() Tokens {
	return Tokens{
		Colors: []TokenGroup{
			{Name: "cosmic", Tokens: []Token{
				{"void", "#0a0a0f"},
				{"deep", "#12121f"},
				{"surface", "#1a1a2e"},
				{"raised", "#232340"},
				{"elevated", "#2d2d55"},
				{"overlay", "#3a3a6a"},
			}},
			{Name: "arcane", Tokens: []Token{
				{"crystal", "#7fffd4"},
				{"fire", "#ff6b35"},
				{"water", "#78a6ff"},
				{"earth", "#4ade80"},
				{"void", "#a855f7"},
				{"gold", "#ffd700"},
			}},
			{Name: "semantic", Tokens: []Token{
				{"success", "#4ade80"},
				{"warning", "#fbbf24"},
				{"error", "#ef4444"},
				{"info", "#78a6ff"},
			}},
			{Name: "text", Tokens: []Token{
				{"primary", "#e4e4f0"},
				{"secondary", "#a0a0b8"},
				{"muted", "#6b6b80"},
				{"inverse", "#0a0a0f"},
			}},
			{Name: "element", Tokens: []Token{
				{"fire", "#ff4500"},
				{"water", "#00bfff"},
				{"earth", "#228b22"},
				{"wind", "#f0f8ff"},
				{"void", "#4b0082"},
				{"spirit", "#ffd700"},
			}},
		},
		Fonts: []Token{
			{"display", "'Cinzel', serif"},
			{"body", "'Crimson Pro', serif"},
			{"sans", "'Inter', sans-serif"},
			{"code", "'JetBrains Mono', monospace"},
		},
		FontSizes: []Token{
			{"xs", "0.75rem"},
			{"sm", "0.875rem"},
			{"base", "1rem"},
			{"lg", "1.125rem"},
			{"xl", "1.25rem"},
			{"2xl", "1.5rem"},
			{"3xl", "1.875rem"},
			{"4xl", "2.25rem"},
			{"5xl", "3rem"},
			{"6xl", "3.75rem"},
			{"7xl", "4.5rem"},
		},
		Spacing: []Token{
			{"px", "1px"},
			{"0", "0"},
			{"0.5", "0.125rem"},
			{"1", "0.25rem"},
			{"2", "0.5rem"},
			{"3", "0.75rem"},
			{"4", "1rem"},
			{"5", "1.25rem"},
			{"6", "1.5rem"},
			{"8", "2rem"},
			{"10", "2.5rem"},
			{"12", "3rem"},
			{"16", "4rem"},
			{"20", "5rem"},
			{"24", "6rem"},
		},
		Effects: []TokenGroup{
			{Name: "glass", Tokens: []Token{
				{"background", "rgba(26, 26, 46, 0.6)"},
				{"backdropFilter", "blur(16px)"},
				{"border", "1px solid rgba(127, 255, 212, 0.1)"},
			}},
			{Name: "glassStrong", Tokens: []Token{
				{"background", "rgba(26, 26, 46, 0.8)"},
				{"backdropFilter", "blur(24px)"},
				{"border", "1px solid rgba(127, 255, 212, 0.2)"},
			}},
			{Name: "glow", Tokens: []Token{
				{"crystal", "0 0 20px rgba(127, 255, 212, 0.3)"},
				{"fire", "0 0 20px rgba(255, 107, 53, 0.3)"},
				{"gold", "0 0 20px rgba(255, 215, 0, 0.3)"},
			}},
			{Name: "gradient", Tokens: []Token{
				{"cosmicMesh", "radial-gradient(ellipse at 20% 50%, rgba(127, 255, 212, 0.05) 0%, transparent 50%), radial-gradient(ellipse at 80% 20%, rgba(168, 85, 247, 0.05) 0%, transparent 50%)"},
				{"aurora", "linear-gradient(135deg, rgba(127, 255, 212, 0.1) 0%, rgba(120, 166, 255, 0.1) 50%, rgba(168, 85, 247, 0.1) 100%)"},
				{"textGold", "linear-gradient(135deg, #ffd700, #ffaa00)"},
				{"textCrystal", "linear-gradient(135deg, #7fffd4, #78a6ff)"},
			}},
		},
		Animations: []TokenGroup{
			{Name: "durations", Tokens: []Token{
				{"fast", "150ms"},
				{"normal", "300ms"},
				{"slow", "500ms"},
				{"glacial", "1000ms"},
			}},
			{Name: "easings", Tokens: []Token{
				{"default", "cubic-bezier(0.4, 0, 0.2, 1)"},
				{"in", "cubic-bezier(0.4, 0, 1, 1)"},
				{"out", "cubic-bezier(0, 0, 0.2, 1)"},
				{"bounce", "cubic-bezier(0.68, -0.55, 0.265, 1.55)"},
			}},
		},
		Breakpoints: []Token{
			{"sm", "640px"},
			{"md", "768px"},
			{"lg", "1024px"},
			{"xl", "1280px"},
			{"2xl", "1536px"},
		},
	}
}

// ColorGroup returns the named color family.
func (t Tokens) ColorGroup(name string) (TokenGroup, bool) {
	for _, g := range t.Colors {
		if g.Name == name {
			return g, true
		}
	}
	return TokenGroup{}, false
}

// CSS renders colors and fonts as custom properties on :root.
func (t Tokens) CSS() string {
	lines := []string{":root {"}
	for _, g := range t.Colors {
		for _, tok := range g.Tokens {
			lines = append(lines, fmt.Sprintf("  --arcanea-%s-%s: %s;", g.Name, tok.Name, tok.Value))
		}
	}
	for _, tok := range t.Fonts {
		lines = append(lines, fmt.Sprintf("  --arcanea-font-%s: %s;", tok.Name, tok.Value))
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// Tailwind renders a Tailwind theme extension as indented JSON.
func (t Tokens) Tailwind() (string, error) {
	colors := orderedmap.New[string, any]()
	for _, name := range []string{"cosmic", "arcane"} {
		if g, ok := t.ColorGroup(name); ok {
			colors.Set(name, tokenMap(g.Tokens))
		}
	}

	fontFamily := orderedmap.New[string, []string]()
	for _, tok := range t.Fonts {
		key := tok.Name
		if key == "code" {
			key = "mono"
		}
		fontFamily.Set(key, []string{tok.Value})
	}

	root := orderedmap.New[string, any]()
	root.Set("colors", colors)
	root.Set("fontFamily", fontFamily)
	root.Set("screens", tokenMap(t.Breakpoints))

	return indentJSON(root)
}

// JSON renders every token group as indented JSON in declaration order.
func (t Tokens) JSON() (string, error) {
	root := orderedmap.New[string, any]()
	root.Set("colors", groupMap(t.Colors))
	root.Set("fonts", tokenMap(t.Fonts))
	root.Set("fontSizes", tokenMap(t.FontSizes))
	root.Set("spacing", tokenMap(t.Spacing))
	root.Set("effects", groupMap(t.Effects))
	root.Set("animations", groupMap(t.Animations))
	root.Set("breakpoints", tokenMap(t.Breakpoints))

	return indentJSON(root)
}

// Export renders the tokens in the named format. Unrecognised formats fall
// back to JSON; the second return value reports whether that happened.
func (t Tokens) Export(format string) (string, bool, error) {
	switch strings.ToLower(format) {
	case FormatCSS:
		return t.CSS(), false, nil
	case FormatTailwind:
		out, err := t.Tailwind()
		return out, false, err
	case FormatJSON, "":
		out, err := t.JSON()
		return out, false, err
	default:
		out, err := t.JSON()
		return out, true, err
	}
}

func tokenMap(tokens []Token) *orderedmap.OrderedMap[string, string] {
	m := orderedmap.New[string, string](orderedmap.WithCapacity[string, string](len(tokens)))
	for _, tok := range tokens {
		m.Set(tok.Name, tok.Value)
	}
	return m
}

func groupMap(groups []TokenGroup) *orderedmap.OrderedMap[string, any] {
	m := orderedmap.New[string, any]()
	for _, g := range groups {
		m.Set(g.Name, tokenMap(g.Tokens))
	}
	return m
}

func indentJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return string(data), nil
}

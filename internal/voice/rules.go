package voice

import "regexp"

// Severity ranks how much a violation costs the score.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Rule is one voice check. Replacement is empty for rules that can only be flagged.
type Rule struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Pattern     *regexp.Regexp `json:"-"`
	Replacement string         `json:"replacement,omitempty"`
	Severity    Severity       `json:"severity"`
}

// DefaultRules is the Arcanea voice rule table.
var DefaultRules = []Rule{
	// Terminology
	{
		ID:          "term-user",
		Description: `Use "creator" not "user"`,
		Pattern:     regexp.MustCompile(`(?i)\buser\b`),
		Replacement: "creator",
		Severity:    SeverityWarning,
	},
	{
		ID:          "term-ai",
		Description: `Use "intelligence" not "artificial intelligence" or "AI"`,
		Pattern:     regexp.MustCompile(`(?i)\bartificial intelligence\b`),
		Replacement: "intelligence",
		Severity:    SeveritySuggestion,
	},
	{
		ID:          "term-magical",
		Description: `Use "arcane" not "magical" or "mystical"`,
		Pattern:     regexp.MustCompile(`(?i)\b(magical|mystical)\b`),
		Replacement: "arcane",
		Severity:    SeveritySuggestion,
	},
	{
		ID:          "term-mythology",
		Description: `Use "living universe" not "mythology" in user-facing text`,
		Pattern:     regexp.MustCompile(`(?i)\bmythology\b`),
		Replacement: "living universe",
		Severity:    SeveritySuggestion,
	},
	{
		ID:          "term-platform",
		Description: `Arcanea is a "realm" or "universe", not a "platform" or "app"`,
		Pattern:     regexp.MustCompile(`(?i)\b(platform|app|application|tool)\b`),
		Severity:    SeveritySuggestion,
	},
	// Tone
	{
		ID:          "tone-condescending",
		Description: "Avoid condescending phrases",
		Pattern:     regexp.MustCompile(`(?i)\b(simply|just|obviously|basically|easy|trivial)\b`),
		Severity:    SeverityWarning,
	},
	{
		ID:          "tone-weak",
		Description: "Avoid weak language, be definitive",
		Pattern:     regexp.MustCompile(`(?i)\b(maybe|perhaps|kind of|sort of|a little bit|somewhat)\b`),
		Severity:    SeveritySuggestion,
	},
	{
		ID:          "tone-corporate",
		Description: "Avoid corporate jargon",
		Pattern:     regexp.MustCompile(`(?i)\b(synergy|leverage|paradigm shift|stakeholder|deliverable|bandwidth|circle back)\b`),
		Severity:    SeverityWarning,
	},
	// Structure
	{
		ID:          "structure-exclamation",
		Description: "Limit exclamation marks, use sparingly for genuine emphasis",
		Pattern:     regexp.MustCompile(`!{2,}`),
		Severity:    SeverityWarning,
	},
	{
		ID:          "structure-emoji-excess",
		Description: "Avoid excessive emoji use",
		Pattern:     regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]{3,}`),
		Severity:    SeverityWarning,
	},
}

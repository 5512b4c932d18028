package speech

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reading modes
const (
	ModeFirstLine = "first_line"
	ModeFullText  = "full_text"
	ModeCharLimit = "char_limit"
)

// DefaultMaxChars bounds ModeCharLimit when no limit is given.
const DefaultMaxChars = 500

var (
	fencePattern    = regexp.MustCompile("(?s)```.*?```")
	inlineCode      = regexp.MustCompile("`([^`]*)`")
	imagePattern    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headingPattern  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	listPattern     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	quotePattern    = regexp.MustCompile(`(?m)^\s*>\s?`)
	emphasisPattern = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
	rulePattern     = regexp.MustCompile(`(?m)^\s*(?:-{3,}|\*{3,})\s*$`)
	spacePattern    = regexp.MustCompile(`[ \t]+`)
)

// StripMarkdown removes markdown formatting so it is not read aloud.
// Code blocks are dropped entirely.
func StripMarkdown(text string) string {
	text = fencePattern.ReplaceAllString(text, "")
	text = imagePattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = rulePattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = listPattern.ReplaceAllString(text, "")
	text = quotePattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "$2")
	return strings.TrimSpace(text)
}

// PrepareText strips markdown and applies the reading mode.
func PrepareText(text, mode string, maxChars int) string {
	text = StripMarkdown(text)

	switch mode {
	case ModeFirstLine:
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				text = line
				break
			}
		}
	case ModeCharLimit:
		if maxChars <= 0 {
			maxChars = DefaultMaxChars
		}
		text = joinLines(text)
		runes := []rune(text)
		if len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	default:
		text = joinLines(text)
	}

	log.Debug().Str("mode", mode).Int("length", len(text)).Msg("Prepared text for speech")
	return text
}

func joinLines(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return spacePattern.ReplaceAllString(strings.Join(parts, " "), " ")
}

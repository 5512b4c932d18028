// Package voice lints text against the Arcanea voice rules and can rewrite the
// terminology rules automatically.
package voice

import (
	"fmt"
)

// Violation is a single rule match.
type Violation struct {
	Rule       Rule   `json:"rule"`
	Match      string `json:"match"`
	Position   int    `json:"position"`
	Suggestion string `json:"suggestion"`
}

// Report summarises a Check run.
type Report struct {
	Passed      bool        `json:"passed"`
	Score       int         `json:"score"`
	Violations  []Violation `json:"violations"`
	Suggestions []string    `json:"suggestions"`
}

// Counts returns the number of violations per severity.
func (r Report) Counts() (errors, warnings, suggestions int) {
	for _, v := range r.Violations {
		switch v.Rule.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeveritySuggestion:
			suggestions++
		}
	}
	return
}

// Enforcer applies a rule table.
type Enforcer struct {
	rules []Rule
}

// NewEnforcer returns an enforcer over rules, or DefaultRules when none are given.
func NewEnforcer(rules ...Rule) *Enforcer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Enforcer{rules: copied}
}

// Rules returns the active rule table.
func (e *Enforcer) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Check reports every rule match in text.
func (e *Enforcer) Check(text string) Report {
	report := Report{
		Violations:  []Violation{},
		Suggestions: []string{},
	}

	for _, rule := range e.rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			v := Violation{
				Rule:     rule,
				Match:    match,
				Position: loc[0],
			}
			if rule.Replacement != "" {
				v.Suggestion = fmt.Sprintf(`Replace "%s" with "%s"`, match, rule.Replacement)
			} else {
				v.Suggestion = "Consider rephrasing: " + rule.Description
			}
			report.Violations = append(report.Violations, v)
			if rule.Severity == SeveritySuggestion {
				report.Suggestions = append(report.Suggestions, v.Suggestion)
			}
		}
	}

	errs, warnings, suggestions := report.Counts()
	report.Score = 100 - errs*20 - warnings*10 - suggestions*3
	if report.Score < 0 {
		report.Score = 0
	}
	report.Passed = errs == 0 && warnings <= 2

	return report
}

// Fix rewrites every match of a rule that has a replacement.
func (e *Enforcer) Fix(text string) string {
	for _, rule := range e.rules {
		if rule.Replacement == "" {
			continue
		}
		text = rule.Pattern.ReplaceAllLiteralString(text, rule.Replacement)
	}
	return text
}

// Package router maps free-text task descriptions to the Guardian persona whose
// domain keywords match best.
package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const (
	// DefaultElement is returned when no element keyword appears in the input.
	DefaultElement = "void"

	exactWeight     = 1.0
	substringWeight = 0.5
	// Keywords this short are only counted on exact word matches.
	minSubstringLen = 4
	// Scores are normalised against at least this value so a single hit
	// never reads as full confidence.
	confidenceFloor = 5.0
	maxAlternatives = 3
)

// Match is a persona with its normalised confidence.
type Match struct {
	Persona    registry.Persona `json:"persona"`
	Confidence float64          `json:"confidence"`
}

// Result is the outcome of routing one input.
type Result struct {
	Persona      registry.Persona `json:"persona"`
	Confidence   float64          `json:"confidence"`
	Element      string           `json:"element"`
	Reasoning    string           `json:"reasoning"`
	Alternatives []Match          `json:"alternatives"`
}

// Router scores input against a registry. It is safe for concurrent use.
type Router struct {
	personas []registry.Persona
	elements []registry.Element
	// keyword -> indexes into personas
	index map[string][]int
	// keywords in first-seen order, for a deterministic substring pass
	keywords []string
}

// New builds a router over the given registry.
func New(reg *registry.Registry) *Router {
	r := &Router{
		personas: reg.Personas(),
		elements: reg.Elements(),
		index:    make(map[string][]int),
	}
	for i, p := range r.personas {
		for _, k := range p.Keywords {
			if _, ok := r.index[k]; !ok {
				r.keywords = append(r.keywords, k)
			}
			r.index[k] = append(r.index[k], i)
		}
	}
	return r
}

// Route picks the best persona for the input. Ties resolve by registry order.
func (r *Router) Route(input string) Result {
	normalized := strings.ToLower(input)
	scores := make([]float64, len(r.personas))

	// Exact word matches
	for _, word := range strings.Fields(normalized) {
		for _, i := range r.index[word] {
			scores[i] += exactWeight
		}
	}

	// Substring matches, evaluated once per input
	for _, k := range r.keywords {
		if len(k) < minSubstringLen || !strings.Contains(normalized, k) {
			continue
		}
		for _, i := range r.index[k] {
			scores[i] += substringWeight
		}
	}

	order := make([]int, len(r.personas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	top := 1.0
	for _, s := range scores {
		if s > top {
			top = s
		}
	}
	denominator := top
	if denominator < confidenceFloor {
		denominator = confidenceFloor
	}
	confidence := func(score float64) float64 {
		c := score / denominator
		if c > 1 {
			return 1
		}
		return c
	}

	best := r.personas[order[0]]
	result := Result{
		Persona:    best,
		Confidence: confidence(scores[order[0]]),
		Element:    r.detectElement(normalized),
	}
	result.Reasoning = reasoning(best, result.Confidence)

	for _, i := range order[1:] {
		if len(result.Alternatives) == maxAlternatives {
			break
		}
		result.Alternatives = append(result.Alternatives, Match{
			Persona:    r.personas[i],
			Confidence: confidence(scores[i]),
		})
	}

	log.Debug().
		Str("persona", best.ID).
		Float64("confidence", result.Confidence).
		Str("element", result.Element).
		Msg("Routed input")

	return result
}

// Rank returns the winner followed by its alternatives.
func (r *Router) Rank(input string) []Match {
	res := r.Route(input)
	return append([]Match{{Persona: res.Persona, Confidence: res.Confidence}}, res.Alternatives...)
}

// Channel resolves a persona directly by id or display name.
func (r *Router) Channel(name string) (registry.Persona, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.personas {
		if p.ID == name || strings.ToLower(p.DisplayName) == name {
			return p, nil
		}
	}
	ids := make([]string, len(r.personas))
	for i, p := range r.personas {
		ids[i] = p.ID
	}
	return registry.Persona{}, &registry.UnknownPersonaError{Name: name, Valid: ids}
}

func (r *Router) detectElement(normalized string) string {
	bestName, bestCount := DefaultElement, 0
	for _, e := range r.elements {
		count := 0
		for _, k := range e.Keywords {
			if strings.Contains(normalized, k) {
				count++
			}
		}
		// strictly greater keeps table order on ties
		if count > bestCount {
			bestName, bestCount = e.Name, count
		}
	}
	return bestName
}

func reasoning(p registry.Persona, confidence float64) string {
	switch {
	case confidence > 0.7:
		return fmt.Sprintf("Strong match for %s (%s). Domain: %s.", p.DisplayName, p.Role, p.Domain)
	case confidence > 0.3:
		return fmt.Sprintf("%s is the best fit for this task. %s", p.DisplayName, p.Vibe)
	default:
		return fmt.Sprintf("Routing to %s as default. Consider being more specific about your intent.", p.DisplayName)
	}
}

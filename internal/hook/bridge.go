package hook

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/router"
)

// Router is the routing dependency of the bridge.
type Router interface {
	Route(input string) router.Result
}

// Bridge turns prompt hook events into Guardian routing context.
type Bridge struct {
	router   Router
	sessions *SessionTracker
}

// NewBridge creates a bridge. A nil tracker injects context on every prompt.
func NewBridge(r Router, sessions *SessionTracker) *Bridge {
	return &Bridge{router: r, sessions: sessions}
}

// Handle reads one event from in and, for Claude Code prompts, writes the
// routing context to out. Unknown or empty events write nothing.
func (b *Bridge) Handle(in io.Reader, out io.Writer) error {
	event, err := DetectAndParse(in)
	if errors.Is(err, ErrUnknownEvent) {
		log.Debug().Msg("Ignoring unknown hook event")
		return nil
	}
	if err != nil {
		return err
	}

	if !event.HasPrompt() {
		log.Debug().Str("source", event.Source).Str("event", event.EventType).Msg("Hook event has no prompt")
		return nil
	}

	res := b.router.Route(event.Prompt)
	if res.Confidence == 0 {
		log.Debug().Str("source", event.Source).Msg("No Guardian matched the prompt")
		return nil
	}

	if b.sessions != nil {
		if b.sessions.Seen(event.SessionID, res.Persona.ID) {
			log.Debug().Str("session", event.SessionID).Str("persona", res.Persona.ID).Msg("Guardian already active in session")
			return nil
		}
		b.sessions.Record(event.SessionID, res.Persona.ID)
	}

	log.Debug().
		Str("source", event.Source).
		Str("session", event.SessionID).
		Str("persona", res.Persona.ID).
		Float64("confidence", res.Confidence).
		Msg("Routed hook prompt")

	// only Claude Code reads context back from the hook
	if event.Source != SourceClaudeCode {
		return nil
	}
	return WriteOutput(out, Context(res))
}

// Context renders the text injected ahead of the prompt.
func Context(res router.Result) string {
	p := res.Persona
	return fmt.Sprintf(
		"Arcanea routing: %s the %s (%s gate, %s element) guides this task at %.0f%% confidence. %s Answer in %s's voice and close with %q",
		p.DisplayName, p.Role, p.Gate, res.Element, res.Confidence*100, res.Reasoning, p.DisplayName, p.SignOff,
	)
}

package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownEvent is returned for payloads no supported assistant sends.
var ErrUnknownEvent = errors.New("unknown hook event format")

// Event is a hook payload normalized across assistants.
type Event struct {
	Source    string
	SessionID string
	CWD       string
	EventType string
	Prompt    string
}

// HasPrompt reports whether the event carries a prompt worth routing.
func (e *Event) HasPrompt() bool {
	return strings.TrimSpace(e.Prompt) != ""
}

// DetectAndParse detects the hook source and parses the event
func DetectAndParse(r io.Reader) (*Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrUnknownEvent
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if typ, _ := generic["type"].(string); typ == EventAgentTurnComplete {
		return parseCodexEvent(data)
	}

	name, ok := generic["hook_event_name"].(string)
	if !ok {
		return nil, ErrUnknownEvent
	}
	// Cursor identifies conversations, Claude Code identifies sessions
	if _, ok := generic["conversation_id"]; ok {
		return parseCursorEvent(data, name)
	}
	return parseClaudeEvent(data, name)
}

func parseCodexEvent(data []byte) (*Event, error) {
	var event CodexNotifyEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse Codex event: %w", err)
	}

	// the latest user message is the one that started this turn
	prompt := ""
	if n := len(event.InputMessages); n > 0 {
		prompt = event.InputMessages[n-1]
	}
	return &Event{
		Source:    SourceCodex,
		SessionID: event.ThreadID,
		CWD:       event.CWD,
		EventType: event.Type,
		Prompt:    prompt,
	}, nil
}

func parseClaudeEvent(data []byte, name string) (*Event, error) {
	var event UserPromptSubmitEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse Claude Code event: %w", err)
	}
	e := &Event{
		Source:    SourceClaudeCode,
		SessionID: event.SessionID,
		CWD:       event.CWD,
		EventType: name,
	}
	if name == EventUserPromptSubmit {
		e.Prompt = event.Prompt
	}
	return e, nil
}

func parseCursorEvent(data []byte, name string) (*Event, error) {
	var event CursorPromptEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse Cursor event: %w", err)
	}
	e := &Event{
		Source:    SourceCursor,
		SessionID: event.ConversationID,
		EventType: name,
	}
	if len(event.WorkspaceRoots) > 0 {
		e.CWD = event.WorkspaceRoots[0]
	}
	if name == EventBeforeSubmitPrompt {
		e.Prompt = event.Prompt
	}
	return e, nil
}

// Package hook bridges assistant prompt hooks to the persona router.
// Claude Code documents its hook payloads at
// https://docs.anthropic.com/en/docs/claude-code/hooks
package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Hook sources
const (
	SourceClaudeCode = "claude-code"
	SourceCursor     = "cursor"
	SourceCodex      = "codex"
)

// Event names that carry a user prompt
const (
	EventUserPromptSubmit   = "UserPromptSubmit"
	EventBeforeSubmitPrompt = "beforeSubmitPrompt"
	EventAgentTurnComplete  = "agent-turn-complete"
)

// ClaudeEvent is the common hook payload sent by Claude Code.
type ClaudeEvent struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd,omitempty"`
	HookEventName  string `json:"hook_event_name"`
}

// UserPromptSubmitEvent is sent by Claude Code before a prompt is processed.
type UserPromptSubmitEvent struct {
	ClaudeEvent
	Prompt string `json:"prompt"`
}

// CursorEvent is the common hook payload sent by Cursor.
type CursorEvent struct {
	ConversationID string   `json:"conversation_id"`
	GenerationID   string   `json:"generation_id,omitempty"`
	HookEventName  string   `json:"hook_event_name"`
	WorkspaceRoots []string `json:"workspace_roots,omitempty"`
}

// CursorPromptEvent is Cursor's beforeSubmitPrompt payload.
type CursorPromptEvent struct {
	CursorEvent
	Prompt string `json:"prompt"`
}

// CodexNotifyEvent is the payload Codex passes to its notify program.
type CodexNotifyEvent struct {
	Type                 string   `json:"type"`
	ThreadID             string   `json:"thread-id"`
	TurnID               int      `json:"turn-id"`
	CWD                  string   `json:"cwd"`
	InputMessages        []string `json:"input-messages"`
	LastAssistantMessage string   `json:"last-assistant-message"`
}

// Output is the JSON Claude Code reads back from a UserPromptSubmit hook.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput carries the context appended to the prompt.
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// WriteOutput encodes a UserPromptSubmit response.
func WriteOutput(w io.Writer, additionalContext string) error {
	out := Output{HookSpecificOutput: SpecificOutput{
		HookEventName:     EventUserPromptSubmit,
		AdditionalContext: additionalContext,
	}}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to write hook output: %w", err)
	}
	return nil
}

package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const (
	AnthropicBaseURL = "https://api.anthropic.com"
	AnthropicVersion = "2023-06-01"
	OpenAIBaseURL    = "https://api.openai.com"
	GitHubBaseURL    = "https://api.github.com"

	maxOpenAIModels = 10
)

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (m modelList) ids() []string {
	ids := make([]string, 0, len(m.Data))
	for _, d := range m.Data {
		ids = append(ids, d.ID)
	}
	return ids
}

// ClaudeAdapter validates Anthropic API keys against the models endpoint.
type ClaudeAdapter struct {
	base
	baseURL string
}

// NewClaudeAdapter creates an Anthropic adapter.
func NewClaudeAdapter(p registry.Provider, opts Options) *ClaudeAdapter {
	return &ClaudeAdapter{base: base{provider: p, opts: opts.withDefaults()}, baseURL: AnthropicBaseURL}
}

// Validate implements Adapter.
func (a *ClaudeAdapter) Validate(ctx context.Context, credential string) Session {
	s := a.session()
	var models modelList
	err := a.getJSON(ctx, a.baseURL+"/v1/models", map[string]string{
		"x-api-key":         credential,
		"anthropic-version": AnthropicVersion,
	}, &models)
	if err != nil {
		return fail(s, err)
	}
	return succeed(s, models.ids(), []string{"chat", "vision", "tools", "computer-use"})
}

// DetectFromEnv implements Adapter.
func (a *ClaudeAdapter) DetectFromEnv(ctx context.Context) *Session {
	return a.detect(ctx, a.Validate)
}

// OpenAIAdapter validates OpenAI API keys against the models endpoint.
type OpenAIAdapter struct {
	base
	baseURL string
}

// NewOpenAIAdapter creates an OpenAI adapter.
func NewOpenAIAdapter(p registry.Provider, opts Options) *OpenAIAdapter {
	return &OpenAIAdapter{base: base{provider: p, opts: opts.withDefaults()}, baseURL: OpenAIBaseURL}
}

// Validate implements Adapter.
func (a *OpenAIAdapter) Validate(ctx context.Context, credential string) Session {
	s := a.session()
	var models modelList
	err := a.getJSON(ctx, a.baseURL+"/v1/models", map[string]string{
		"Authorization": "Bearer " + credential,
	}, &models)
	if err != nil {
		return fail(s, err)
	}

	// Only chat models are interesting
	var chat []string
	for _, id := range models.ids() {
		if strings.HasPrefix(id, "gpt") {
			chat = append(chat, id)
		}
		if len(chat) == maxOpenAIModels {
			break
		}
	}
	return succeed(s, chat, []string{"chat", "vision", "tools", "images"})
}

// DetectFromEnv implements Adapter.
func (a *OpenAIAdapter) DetectFromEnv(ctx context.Context) *Session {
	return a.detect(ctx, a.Validate)
}

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CopilotAdapter validates GitHub tokens, or falls back to the gh CLI login.
type CopilotAdapter struct {
	base
	baseURL string
	run     CommandRunner
}

// NewCopilotAdapter creates a GitHub Copilot adapter.
func NewCopilotAdapter(p registry.Provider, opts Options, run CommandRunner) *CopilotAdapter {
	return &CopilotAdapter{base: base{provider: p, opts: opts.withDefaults()}, baseURL: GitHubBaseURL, run: run}
}

var (
	copilotCapabilities = []string{"chat", "completions", "agents"}
	ghAccountPattern    = regexp.MustCompile(`account (\S+)`)
)

// Validate implements Adapter.
func (a *CopilotAdapter) Validate(ctx context.Context, credential string) Session {
	s := a.session()
	var user struct {
		Login string `json:"login"`
	}
	err := a.getJSON(ctx, a.baseURL+"/user", map[string]string{
		"Authorization": "Bearer " + credential,
		"Accept":        "application/vnd.github+json",
	}, &user)
	if err != nil {
		return fail(s, err)
	}
	s = succeed(s, nil, copilotCapabilities)
	s.Account = user.Login
	return s
}

// DetectFromEnv implements Adapter. Without a token it asks the gh CLI.
func (a *CopilotAdapter) DetectFromEnv(ctx context.Context) *Session {
	if s := a.detect(ctx, a.Validate); s != nil {
		return s
	}
	if a.run == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	out, err := a.run(ctx, "gh", "auth", "status")
	text := string(out)
	if !strings.Contains(text, "Logged in") {
		log.Debug().Err(err).Msg("gh CLI is not logged in")
		return nil
	}

	s := succeed(a.session(), nil, copilotCapabilities)
	s.Source = "gh"
	if m := ghAccountPattern.FindStringSubmatch(text); m != nil {
		s.Account = m[1]
	}
	return &s
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

// GeminiAdapter validates Google AI Studio keys by listing models through the
// genai client.
type GeminiAdapter struct {
	base
	baseURL string
}

// NewGeminiAdapter creates a Gemini adapter.
func NewGeminiAdapter(p registry.Provider, opts Options) *GeminiAdapter {
	return &GeminiAdapter{base: base{provider: p, opts: opts.withDefaults()}}
}

// Validate implements Adapter.
func (a *GeminiAdapter) Validate(ctx context.Context, credential string) Session {
	s := a.session()
	if credential == "" {
		return fail(s, errors.New("empty credential"))
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	cfg := &genai.ClientConfig{
		APIKey:     credential,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: a.opts.HTTPClient,
	}
	cfg.HTTPOptions.Headers = http.Header{"User-Agent": {UserAgent}}
	if a.baseURL != "" {
		cfg.HTTPOptions.BaseURL = a.baseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return fail(s, fmt.Errorf("failed to create genai client: %w", err))
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 50})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.Code
			// Gemini reports a bad key as 400 API_KEY_INVALID
			if code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key") {
				code = http.StatusUnauthorized
			}
			err = &httpStatusError{code: code, body: apiErr.Message}
		}
		return fail(s, err)
	}

	models := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	return succeed(s, models, []string{"chat", "vision", "tools", "long-context"})
}

// DetectFromEnv implements Adapter.
func (a *GeminiAdapter) DetectFromEnv(ctx context.Context) *Session {
	return a.detect(ctx, a.Validate)
}

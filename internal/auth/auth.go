// Package auth validates provider credentials with a single read-only call per
// provider. Validation never returns an error; failures are reported on the
// Session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const (
	UserAgent      = "Arcanea-Auth/1.0"
	DefaultTimeout = 10 * time.Second
)

// Status is the outcome of a validation attempt.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusUnknown Status = "unknown"
)

// Session describes an authenticated (or rejected) provider credential.
type Session struct {
	Provider     string   `json:"provider"`
	Status       Status   `json:"status"`
	Validated    bool     `json:"validated"`
	Models       []string `json:"models,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Account      string   `json:"account,omitempty"`
	Source       string   `json:"source,omitempty"`
	Detail       string   `json:"detail,omitempty"`
}

// Adapter validates credentials for one provider.
type Adapter interface {
	ID() string
	DisplayName() string
	SetupURL() string
	EnvVarNames() []string

	// Validate performs one bounded, read-only call with the credential.
	Validate(ctx context.Context, credential string) Session

	// DetectFromEnv validates the credential found in the provider's env vars.
	// It returns nil when none is set.
	DetectFromEnv(ctx context.Context) *Session
}

// Options configures adapters.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Getenv     func(string) string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	return o
}

// MaskCredential hides all but a short prefix and suffix of a secret.
func MaskCredential(credential string) string {
	runes := []rune(credential)
	if len(runes) <= 8 {
		return strings.Repeat("•", 8)
	}
	return string(runes[:7]) + "•••" + string(runes[len(runes)-4:])
}

// base carries the registry descriptor shared by every adapter.
type base struct {
	provider registry.Provider
	opts     Options
}

func (b *base) ID() string            { return b.provider.ID }
func (b *base) DisplayName() string   { return b.provider.DisplayName }
func (b *base) SetupURL() string      { return b.provider.SetupURL }
func (b *base) EnvVarNames() []string { return append([]string(nil), b.provider.EnvVars...) }

func (b *base) session() Session {
	return Session{Provider: b.provider.ID, Status: StatusUnknown}
}

// detect runs validate against the env credential, recording the source.
func (b *base) detect(ctx context.Context, validate func(context.Context, string) Session) *Session {
	value, source := b.provider.CredentialFromEnv(b.opts.Getenv)
	if value == "" {
		return nil
	}
	s := validate(ctx, value)
	s.Source = source
	return &s
}

// httpStatusError is a non-2xx response from a provider API.
type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// getJSON issues a GET and decodes a 2xx JSON body into out.
func (b *base) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug().Str("provider", b.provider.ID).Str("url", url).Msg("Validating credential")

	resp, err := b.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &httpStatusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fail records a validation failure on the session. Rejected credentials are
// invalid; everything else is unknown.
func fail(s Session, err error) Session {
	s.Validated = false
	s.Status = StatusUnknown
	s.Detail = err.Error()

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.code {
		case http.StatusUnauthorized, http.StatusForbidden:
			s.Status = StatusInvalid
			s.Detail = fmt.Sprintf("credential rejected (HTTP %d)", statusErr.code)
		default:
			s.Detail = fmt.Sprintf("provider returned HTTP %d", statusErr.code)
		}
	}

	log.Debug().Str("provider", s.Provider).Str("status", string(s.Status)).Str("detail", s.Detail).Msg("Validation failed")
	return s
}

func succeed(s Session, models, capabilities []string) Session {
	s.Validated = true
	s.Status = StatusValid
	s.Models = models
	s.Capabilities = capabilities
	return s
}

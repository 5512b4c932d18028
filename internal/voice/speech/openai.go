package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenAITTSEndpoint = "/audio/speech"

	defaultOpenAIModel  = "tts-1"
	defaultOpenAIVoice  = "alloy"
	defaultOpenAIFormat = "mp3"
)

// openAIVoices is fixed; the API has no voice listing endpoint.
var openAIVoices = []struct{ id, gender, desc string }{
	{"alloy", "neutral", "Balanced, clear voice"},
	{"echo", "male", "Deep, resonant voice"},
	{"fable", "neutral", "Expressive, storytelling voice"},
	{"onyx", "male", "Strong, authoritative voice"},
	{"nova", "female", "Bright, energetic voice"},
	{"shimmer", "female", "Warm, friendly voice"},
}

// OpenAIProvider speaks through the OpenAI audio API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    OpenAIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// ListVoices implements Provider.
func (p *OpenAIProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	voices := make([]Voice, len(openAIVoices))
	for i, v := range openAIVoices {
		voices[i] = Voice{
			ID:          v.id,
			Name:        titleCase(v.id),
			Language:    "en",
			Gender:      v.gender,
			Description: v.desc,
		}
	}
	return voices, nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize implements Provider. The caller closes the returned body.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	body := speechRequest{
		Model:          orDefault(options.Model, defaultOpenAIModel),
		Input:          text,
		Voice:          orDefault(options.Voice, defaultOpenAIVoice),
		ResponseFormat: orDefault(options.Format, defaultOpenAIFormat),
		Speed:          clampSpeed(options.Speed),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Debug().
		Str("voice", body.Voice).
		Str("model", body.Model).
		Str("format", body.ResponseFormat).
		Float64("speed", body.Speed).
		Msg("Synthesizing with OpenAI")

	resp, err := p.do(ctx, http.MethodPost, OpenAITTSEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeOpenAIError(resp)
	}
	return resp.Body, nil
}

// IsAvailable checks the key against the models endpoint.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if p.apiKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := p.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		log.Debug().Err(err).Msg("OpenAI API not available")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *OpenAIProvider) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach OpenAI: %w", err)
	}
	return resp, nil
}

// OpenAIError is a non-200 response from the OpenAI API.
type OpenAIError struct {
	Status  int
	Message string
	Type    string
}

func (e *OpenAIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("OpenAI API error: status %d", e.Status)
	}
	return fmt.Sprintf("OpenAI API error: status %d: %s (type: %s)", e.Status, e.Message, e.Type)
}

func decodeOpenAIError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	apiErr := &OpenAIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
	}
	return apiErr
}

// clampSpeed limits speed to 0.25-4.0; zero means normal speed.
func clampSpeed(speed float64) float64 {
	switch {
	case speed <= 0:
		return 1.0
	case speed < 0.25:
		return 0.25
	case speed > 4.0:
		return 4.0
	}
	return speed
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Package speech synthesizes text through cloud text-to-speech services.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog/log"
)

// Provider defines the interface for TTS providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ListVoices returns available voices for this provider
	ListVoices(ctx context.Context) ([]Voice, error)

	// Synthesize generates audio from text and returns an audio stream
	Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error)

	// IsAvailable checks if the provider is available (can be used)
	IsAvailable(ctx context.Context) bool
}

// Voice represents a voice option
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

// SynthesizeOptions contains options for text synthesis
type SynthesizeOptions struct {
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed,omitempty"`       // Speed multiplier (0.25-4.0)
	Format     string  `json:"format,omitempty"`      // Output format (mp3, ogg, pcm, wav)
	Language   string  `json:"language,omitempty"`    // Language code
	Model      string  `json:"model,omitempty"`       // Model to use (tts-1, tts-1-hd)
	Engine     string  `json:"engine,omitempty"`      // Polly engine (standard, neural)
	SampleRate string  `json:"sample_rate,omitempty"` // Sample rate in Hz
}

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderPolly  = "polly"
	ProviderGCP    = "gcp"
)

// Config selects and configures a provider.
type Config struct {
	Provider string

	// OpenAI
	OpenAIKey     string
	OpenAIBaseURL string

	// Amazon Polly
	AWSRegion      string
	AWSCredentials aws.CredentialsProvider

	// Google Cloud TTS
	GCPCredentialsFile string
	GCPVoice           string
	GCPLanguage        string
}

// Names returns the supported provider names.
func Names() []string {
	names := []string{ProviderOpenAI, ProviderPolly, ProviderGCP}
	sort.Strings(names)
	return names
}

// New creates the provider named in cfg.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found, run arcanea auth add openai or set OPENAI_API_KEY")
		}
		p := NewOpenAIProvider(cfg.OpenAIKey)
		if cfg.OpenAIBaseURL != "" {
			p.baseURL = cfg.OpenAIBaseURL
		}
		return p, nil
	case ProviderPolly:
		return NewPollyProvider(ctx, cfg.AWSRegion, cfg.AWSCredentials)
	case ProviderGCP:
		var opts []GCPProviderOption
		if cfg.GCPCredentialsFile != "" {
			opts = append(opts, WithGCPCredentialsFile(cfg.GCPCredentialsFile))
		}
		if cfg.GCPVoice != "" {
			opts = append(opts, WithGCPVoice(cfg.GCPVoice))
		}
		if cfg.GCPLanguage != "" {
			opts = append(opts, WithGCPLanguage(cfg.GCPLanguage))
		}
		return NewGCPProvider(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown speech provider: %s (available: %v)", cfg.Provider, Names())
	}
}

// Speak synthesizes text and copies the audio to w.
func Speak(ctx context.Context, p Provider, text string, options SynthesizeOptions, w io.Writer) (int64, error) {
	stream, err := p.Synthesize(ctx, text, options)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	n, err := io.Copy(w, stream)
	if err != nil {
		return n, fmt.Errorf("failed to write audio: %w", err)
	}
	log.Debug().Str("provider", p.Name()).Int64("bytes", n).Msg("Wrote synthesized audio")
	return n, nil
}

// SpeakToFile synthesizes text into a file, creating parent directories.
func SpeakToFile(ctx context.Context, p Provider, text string, options SynthesizeOptions, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := Speak(ctx, p, text, options, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

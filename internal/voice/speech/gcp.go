package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPClient is the part of the Cloud TTS client the provider uses.
type GCPClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GCPProvider speaks through Google Cloud Text-to-Speech.
type GCPProvider struct {
	client          GCPClient
	credentialsFile string
	voice           string
	language        string
}

// GCPProviderOption configures a GCPProvider.
type GCPProviderOption func(*GCPProvider)

// WithGCPCredentialsFile authenticates with a service account key file
// instead of Application Default Credentials.
func WithGCPCredentialsFile(path string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.credentialsFile = path
	}
}

// WithGCPVoice sets the default voice
func WithGCPVoice(voice string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.voice = voice
	}
}

// WithGCPLanguage sets the default language code
func WithGCPLanguage(language string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.language = language
	}
}

// NewGCPProvider creates a new Google Cloud TTS provider.
// Authentication uses GOOGLE_APPLICATION_CREDENTIALS or Application Default
// Credentials unless a key file is given.
func NewGCPProvider(ctx context.Context, opts ...GCPProviderOption) (*GCPProvider, error) {
	p := &GCPProvider{
		voice:    "en-US-Neural2-D",
		language: "en-US",
	}
	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []option.ClientOption
	if p.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(p.credentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP TTS client: %w", err)
	}
	p.client = client
	return p, nil
}

// Name implements Provider.
func (p *GCPProvider) Name() string {
	return ProviderGCP
}

var (
	gcpGenders = map[texttospeechpb.SsmlVoiceGender]string{
		texttospeechpb.SsmlVoiceGender_MALE:    "male",
		texttospeechpb.SsmlVoiceGender_FEMALE:  "female",
		texttospeechpb.SsmlVoiceGender_NEUTRAL: "neutral",
	}
	// voice name fragment -> family, checked in order
	gcpFamilies = [][2]string{
		{"wavenet", "WaveNet"},
		{"neural2", "Neural2"},
		{"studio", "Studio"},
		{"polyglot", "Polyglot"},
	}
	gcpEncodings = map[string]texttospeechpb.AudioEncoding{
		"wav":      texttospeechpb.AudioEncoding_LINEAR16,
		"linear16": texttospeechpb.AudioEncoding_LINEAR16,
		"pcm":      texttospeechpb.AudioEncoding_LINEAR16,
		"ogg":      texttospeechpb.AudioEncoding_OGG_OPUS,
		"ogg_opus": texttospeechpb.AudioEncoding_OGG_OPUS,
	}
	gcpSampleRates = []int32{8000, 16000, 22050, 24000, 44100, 48000}
)

// ListVoices implements Provider. A voice with several languages is listed once per language.
func (p *GCPProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list GCP voices: %w", describeGRPC(err))
	}

	var voices []Voice
	for _, v := range resp.Voices {
		gender, ok := gcpGenders[v.SsmlGender]
		if !ok {
			gender = "unknown"
		}
		desc := fmt.Sprintf("%s voice (%s)", voiceFamily(v.Name), strings.Join(v.LanguageCodes, ", "))
		for _, lang := range v.LanguageCodes {
			voices = append(voices, Voice{ID: v.Name, Name: v.Name, Language: lang, Gender: gender, Description: desc})
		}
	}

	log.Debug().Int("count", len(voices)).Msg("Listed GCP TTS voices")
	return voices, nil
}

func voiceFamily(name string) string {
	name = strings.ToLower(name)
	for _, f := range gcpFamilies {
		if strings.Contains(name, f[0]) {
			return f[1]
		}
	}
	return "Standard"
}

// Synthesize implements Provider. The language defaults to the prefix of the
// voice name (en-US-Neural2-D speaks en-US).
func (p *GCPProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := p.voice
	if options.Voice != "" {
		voice = options.Voice
	}

	language := p.language
	if options.Language != "" {
		language = options.Language
	} else if parts := strings.Split(voice, "-"); len(parts) >= 2 {
		language = parts[0] + "-" + parts[1]
	}

	input := &texttospeechpb.SynthesisInput{
		InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
	}
	if isSSML(text) {
		input.InputSource = &texttospeechpb.SynthesisInput_Ssml{Ssml: text}
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: input,
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   audioEncoding(options.Format),
			SpeakingRate:    clampSpeed(options.Speed),
			SampleRateHertz: sampleRate(options.SampleRate),
		},
	}

	log.Debug().
		Str("voice", voice).
		Str("language", language).
		Str("format", options.Format).
		Msg("Synthesizing with GCP TTS")

	resp, err := p.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", describeGRPC(err))
	}

	return io.NopCloser(bytes.NewReader(resp.AudioContent)), nil
}

func audioEncoding(format string) texttospeechpb.AudioEncoding {
	if enc, ok := gcpEncodings[strings.ToLower(format)]; ok {
		return enc
	}
	return texttospeechpb.AudioEncoding_MP3
}

// sampleRate returns the rate in Hz, or 0 for the voice default.
func sampleRate(rate string) int32 {
	hz, err := strconv.ParseInt(rate, 10, 32)
	if err != nil || !slices.Contains(gcpSampleRates, int32(hz)) {
		return 0
	}
	return int32(hz)
}

// describeGRPC adds a hint for the status codes a creator can act on.
func describeGRPC(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w (check GOOGLE_APPLICATION_CREDENTIALS)", err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w (check the voice name and language)", err)
	default:
		return err
	}
}

// IsAvailable implements Provider.
func (p *GCPProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	return err == nil
}

// Close releases the gRPC connection.
func (p *GCPProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

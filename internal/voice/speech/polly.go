package speech

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultPollyRegion is used when no region is configured.
	DefaultPollyRegion = "us-east-1"
	defaultPollyVoice  = "Joanna"
)

var (
	pollyFormats = map[string]types.OutputFormat{
		"":    types.OutputFormatMp3,
		"mp3": types.OutputFormatMp3,
		"ogg": types.OutputFormatOggVorbis,
		"pcm": types.OutputFormatPcm,
	}
	pollyEngines = map[string]types.Engine{
		"":           types.EngineNeural,
		"neural":     types.EngineNeural,
		"standard":   types.EngineStandard,
		"long-form":  types.EngineLongForm,
		"generative": types.EngineGenerative,
	}
	pollySampleRates = []string{"8000", "16000", "22050", "24000"}
	ssmlTags         = []string{"<prosody", "<break", "<emphasis"}
)

// PollyClient is the subset of the Polly API the provider calls.
type PollyClient interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider speaks through Amazon Polly.
type PollyProvider struct {
	client PollyClient
	region string
}

// NewPollyProvider creates a Polly provider. A nil credentials provider falls
// back to the default AWS credential chain.
func NewPollyProvider(ctx context.Context, region string, creds aws.CredentialsProvider) (*PollyProvider, error) {
	if region == "" {
		region = DefaultPollyRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if creds != nil {
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &PollyProvider{client: polly.NewFromConfig(cfg), region: region}, nil
}

// Name implements Provider.
func (p *PollyProvider) Name() string {
	return ProviderPolly
}

// ListVoices implements Provider.
func (p *PollyProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	out, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list Polly voices: %w", err)
	}

	voices := make([]Voice, 0, len(out.Voices))
	for _, v := range out.Voices {
		engines := "unknown"
		if len(v.SupportedEngines) > 0 {
			names := make([]string, len(v.SupportedEngines))
			for i, e := range v.SupportedEngines {
				names[i] = string(e)
			}
			engines = strings.Join(names, ", ")
		}
		voices = append(voices, Voice{
			ID:          string(v.Id),
			Name:        aws.ToString(v.Name),
			Language:    string(v.LanguageCode),
			Gender:      strings.ToLower(string(v.Gender)),
			Description: fmt.Sprintf("%s voice, %s engine supported", titleCase(string(v.Gender)), engines),
		})
	}
	return voices, nil
}

// Synthesize implements Provider. SSML input is detected from its tags.
func (p *PollyProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	format, ok := pollyFormats[strings.ToLower(options.Format)]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format: %s", options.Format)
	}
	engine, ok := pollyEngines[strings.ToLower(options.Engine)]
	if !ok {
		log.Warn().Str("engine", options.Engine).Msg("Unknown Polly engine, using neural")
		engine = types.EngineNeural
	}
	voiceID := options.Voice
	if voiceID == "" {
		voiceID = defaultPollyVoice
	}

	in := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(voiceID),
		OutputFormat: format,
		Engine:       engine,
		TextType:     types.TextTypeText,
	}
	if isSSML(text) {
		in.TextType = types.TextTypeSsml
	}
	if rate := options.SampleRate; rate != "" {
		if slices.Contains(pollySampleRates, rate) {
			in.SampleRate = aws.String(rate)
		} else {
			log.Warn().Str("sample_rate", rate).Msg("Unsupported Polly sample rate, using default")
		}
	}

	log.Debug().
		Str("voice", voiceID).
		Str("format", string(format)).
		Str("engine", string(engine)).
		Str("region", p.region).
		Msg("Synthesizing with Polly")

	out, err := p.client.SynthesizeSpeech(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return out.AudioStream, nil
}

// IsAvailable implements Provider.
func (p *PollyProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{})
	return err == nil
}

func isSSML(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<speak") {
		return true
	}
	for _, tag := range ssmlTags {
		if strings.Contains(trimmed, tag) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

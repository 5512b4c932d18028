package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/auth"
	"github.com/arcanea-realm/arcanea/internal/config"
	"github.com/arcanea-realm/arcanea/internal/keystore"
	"github.com/arcanea-realm/arcanea/internal/voice"
	"github.com/arcanea-realm/arcanea/internal/voice/speech"
)

// voiceOutput is the --json shape of the voice command.
type voiceOutput struct {
	voice.Report
	Fixed string `json:"fixed,omitempty"`
}

func handleVoice(ctx context.Context, c *cli.Command) error {
	if c.Bool("list-voices") {
		return listVoices(ctx, c)
	}

	text, err := voiceText(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return cli.Exit("text is required (e.g. arcanea voice \"our AI helps users\")", 1)
	}

	enforcer := voice.NewEnforcer()
	report := enforcer.Check(text)
	fixed := ""
	if c.Bool("fix") {
		fixed = enforcer.Fix(text)
	}

	u := ui{out: commandWriter(c)}
	if c.Bool("speak") {
		spoken := text
		if fixed != "" {
			spoken = fixed
		}
		// audio on stdout leaves no room for the report
		if c.String("output") == "" {
			return speak(ctx, c, spoken, u.out)
		}
		if err := speak(ctx, c, spoken, nil); err != nil {
			return err
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(u.out)
		enc.SetIndent("", "  ")
		return enc.Encode(voiceOutput{Report: report, Fixed: fixed})
	}
	printVoiceReport(u, report, fixed)
	return nil
}

// voiceText joins the arguments, or reads stdin when there are none or the
// only argument is "-".
func voiceText(c *cli.Command) (string, error) {
	args := c.Args().Slice()
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(commandReader(c))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func printVoiceReport(u ui, report voice.Report, fixed string) {
	scoreColor := red
	switch {
	case report.Score >= 80:
		scoreColor = green
	case report.Score >= 50:
		scoreColor = yellow
	}
	verdict := red("NEEDS WORK")
	if report.Passed {
		verdict = green("PASSED")
	}

	u.println()
	u.printf("  Voice Score: %s  %s\n", scoreColor(fmt.Sprintf("%d/100", report.Score)), verdict)

	if len(report.Violations) > 0 {
		u.println()
		for _, v := range report.Violations {
			icon := yellow("!")
			switch v.Rule.Severity {
			case voice.SeverityError:
				icon = red("✗")
			case voice.SeveritySuggestion:
				icon = cyan("→")
			}
			u.printf("  %s [%s] %q — %s\n", icon, v.Rule.Severity, v.Match, v.Rule.Description)
			if v.Suggestion != "" {
				u.printf("    %s\n", dim("-> "+v.Suggestion))
			}
		}
	}

	if fixed != "" {
		u.println()
		u.printf("  %s\n", bold("Fixed:"))
		u.printf("  %s\n", fixed)
	}
	u.println()
}

// newSpeechProvider builds the configured provider, with flags overriding config.
func newSpeechProvider(ctx context.Context, c *cli.Command) (speech.Provider, config.TTS, error) {
	a, err := newApp(c)
	if err != nil {
		return nil, config.TTS{}, err
	}
	settings := a.cfg.TTS()
	if name := c.String("tts"); name != "" {
		settings.Provider = name
	}
	if v := c.String("voice"); v != "" {
		settings.Voice = v
	}
	if m := c.String("mode"); m != "" {
		settings.Mode = m
	}

	cfg := speech.Config{
		Provider:           settings.Provider,
		AWSRegion:          settings.AWSRegion,
		GCPCredentialsFile: settings.GCPCredentials,
		GCPVoice:           settings.Voice,
		GCPLanguage:        settings.GCPLanguage,
	}
	switch settings.Provider {
	case speech.ProviderOpenAI, "":
		key, err := a.keys.Load(ctx, "openai")
		if err != nil && !errors.Is(err, keystore.ErrNotFound) {
			return nil, settings, err
		}
		cfg.OpenAIKey = key
	case speech.ProviderPolly:
		// reuse the Amazon Q credential when one is stored, otherwise the SDK chain applies
		if cred, err := a.keys.Load(ctx, "amazonq"); err == nil {
			creds, err := auth.ParseAWSCredential(cred)
			if err != nil {
				return nil, settings, err
			}
			cfg.AWSCredentials = credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
		}
	}

	provider, err := speech.New(ctx, cfg)
	if err != nil {
		return nil, settings, fmt.Errorf("failed to create speech provider: %w", err)
	}
	return provider, settings, nil
}

func listVoices(ctx context.Context, c *cli.Command) error {
	provider, _, err := newSpeechProvider(ctx, c)
	if err != nil {
		return err
	}
	voices, err := provider.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	u := ui{out: commandWriter(c)}
	u.println()
	u.printf("  %s\n", bold(fmt.Sprintf("%s voices (%d)", provider.Name(), len(voices))))
	for _, v := range voices {
		detail := v.Language
		if v.Gender != "" {
			detail += ", " + v.Gender
		}
		u.printf("  %-28s %s\n", v.ID, dim(detail))
	}
	u.println()
	return nil
}

// speak synthesizes text to --output, or to w when no file is given.
func speak(ctx context.Context, c *cli.Command, text string, w io.Writer) error {
	provider, settings, err := newSpeechProvider(ctx, c)
	if err != nil {
		return err
	}

	prepared := speech.PrepareText(text, settings.Mode, settings.MaxChars)
	if prepared == "" {
		log.Warn().Msg("Nothing to speak after preparing text")
		return nil
	}
	opts := speech.SynthesizeOptions{
		Voice:    settings.Voice,
		Speed:    settings.Speed,
		Format:   settings.Format,
		Engine:   settings.Engine,
		Language: settings.GCPLanguage,
	}

	if path := c.String("output"); path != "" {
		if err := speech.SpeakToFile(ctx, provider, prepared, opts, path); err != nil {
			return err
		}
		log.Info().Str("provider", provider.Name()).Str("file", path).Msg("Audio written")
		return nil
	}
	if w == nil {
		w = os.Stdout
	}
	_, err = speech.Speak(ctx, provider, prepared, opts, w)
	return err
}

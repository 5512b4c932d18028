package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanea-realm/arcanea/internal/detect"
	"github.com/arcanea-realm/arcanea/internal/hook"
	"github.com/arcanea-realm/arcanea/internal/manifest"
	"github.com/arcanea-realm/arcanea/internal/registry"
	"github.com/arcanea-realm/arcanea/internal/router"
)

// testEnv isolates HOME and provider credentials so commands never touch the
// real keystore or call provider APIs.
type testEnv struct {
	home    string
	project string
	config  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY",
		"GITHUB_TOKEN", "GH_TOKEN", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "ARCANEA_DIR",
	} {
		t.Setenv(name, "")
	}
	return testEnv{
		home:    home,
		project: t.TempDir(),
		config:  filepath.Join(home, ".arcanea", "config.yaml"),
	}
}

func (e testEnv) run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = &out
	cmd.Reader = strings.NewReader(stdin)

	full := append([]string{"arcanea", "--config", e.config, "--dir", e.project}, args...)
	require.NoError(t, cmd.Run(context.Background(), full))
	return out.String()
}

func TestRouteCommand(t *testing.T) {
	env := newTestEnv(t)

	t.Run("text output", func(t *testing.T) {
		out := env.run(t, "", "route", "fix", "the", "database", "migration", "pipeline")
		assert.Contains(t, out, "Lyssandria")
		assert.Contains(t, out, "Confidence: 90%")
		assert.Contains(t, out, "Stand firm.")
	})

	t.Run("json output", func(t *testing.T) {
		out := env.run(t, "", "route", "--json", "Design a beautiful landing page")
		var res router.Result
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "leyla", res.Persona.ID)
	})

	t.Run("channel skips routing", func(t *testing.T) {
		out := env.run(t, "", "route", "--json", "--channel", "lyssandria")
		var res router.Result
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "lyssandria", res.Persona.ID)
		assert.Equal(t, 1.0, res.Confidence)
	})
}

func TestVoiceCommand(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json report with fix", func(t *testing.T) {
		out := env.run(t, "", "voice", "--json", "--fix", "This tool helps the user")
		var got voiceOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Less(t, got.Score, 100)
		assert.NotEmpty(t, got.Violations)
		assert.Contains(t, got.Fixed, "creator")
	})

	t.Run("reads stdin", func(t *testing.T) {
		out := env.run(t, "Stand firm and build.", "voice")
		assert.Contains(t, out, "Voice Score:")
	})
}

func TestTokensCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, "", "tokens", "--format", "css")
	assert.True(t, strings.HasPrefix(out, ":root {"))

	out = env.run(t, "", "tokens", "--format", "json")
	assert.True(t, json.Valid([]byte(out)))

	out = env.run(t, "", "tokens", "--colors")
	assert.Contains(t, out, "Arcanea Color Palette")
}

func TestInitInstallsSelectedProvider(t *testing.T) {
	env := newTestEnv(t)

	t.Run("dry run writes nothing", func(t *testing.T) {
		out := env.run(t, "", "init", "--yes", "--dry-run", "--provider", "claude")
		assert.Contains(t, out, "Installation preview:")
		assert.Contains(t, out, ".claude/CLAUDE.md")
		assert.Contains(t, out, "Dry run")
		assert.NoFileExists(t, filepath.Join(env.project, ".claude", "CLAUDE.md"))
	})

	t.Run("install", func(t *testing.T) {
		out := env.run(t, "", "init", "--yes", "--provider", "claude")
		assert.Contains(t, out, "Claude (Anthropic) overlay installed")
		assert.Contains(t, out, "Arcanea Intelligence OS initialized.")
		assert.FileExists(t, filepath.Join(env.project, ".claude", "CLAUDE.md"))

		doc, err := manifest.Read(env.project)
		require.NoError(t, err)
		entry, ok := doc.Entry("claude")
		require.True(t, ok)
		assert.Equal(t, "standard", entry.Level.String())
	})

	t.Run("status lists the overlay", func(t *testing.T) {
		out := env.run(t, "", "status")
		assert.Contains(t, out, "Overlays")
		assert.Contains(t, out, "standard")
		assert.Contains(t, out, "not configured")
	})

	t.Run("update refreshes at the recorded level", func(t *testing.T) {
		out := env.run(t, "", "update")
		assert.Contains(t, out, "Found 1 overlay(s) to update...")
		assert.Contains(t, out, "claude (standard)")
		assert.Contains(t, out, "All overlays updated.")
	})

	t.Run("uninstall removes the overlay", func(t *testing.T) {
		env.run(t, "", "uninstall", "claude")
		doc, err := manifest.Read(env.project)
		require.NoError(t, err)
		assert.Empty(t, doc.Providers())
	})
}

func TestInitWithNoDetectedTools(t *testing.T) {
	env := newTestEnv(t)
	orig := newDetector
	newDetector = func(reg *registry.Registry) *detect.Detector {
		d := detect.New(reg)
		d.HomeDir = func() (string, error) { return env.home, nil }
		d.Getenv = func(string) string { return "" }
		d.LookPath = func(string) (string, error) { return "", os.ErrNotExist }
		return d
	}
	t.Cleanup(func() { newDetector = orig })

	out := env.run(t, "", "init", "--yes", "--dry-run")
	assert.Contains(t, out, "No tools selected")
	assert.NotContains(t, out, "Installation preview:")

	entries, err := os.ReadDir(env.project)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateListsWrittenFiles(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, "", "init", "--yes", "--provider", "claude")
	assert.Contains(t, out, "+ .claude/CLAUDE.md")
	assert.Contains(t, out, "+ .claude/skills/arcanea-voice/SKILL.md")

	require.NoError(t, os.Remove(filepath.Join(env.project, ".claude", "skills", "arcanea-voice", "SKILL.md")))

	out = env.run(t, "", "update")
	assert.Contains(t, out, "claude (standard) — 1 created, 0 modified")
	assert.Contains(t, out, "+ .claude/skills/arcanea-voice/SKILL.md")

	out = env.run(t, "", "update")
	assert.Contains(t, out, "claude (standard) — up to date")
}

func TestInstallDryRunShowsEstimate(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, "", "install", "--dry-run", "--level", "minimal", "gemini")
	assert.Contains(t, out, "Preview for Gemini (Google)")
	assert.Contains(t, out, "Estimated size:")
	assert.NoFileExists(t, manifest.Path(env.project))
}

func TestAuthAddAndRemove(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, "", "auth", "add", "claude")
	assert.Contains(t, out, "No key provided.")

	out = env.run(t, "", "auth", "remove", "claude")
	assert.Contains(t, out, "Credentials for Claude (Anthropic) removed.")

	out = env.run(t, "", "auth", "list", "--offline")
	assert.Contains(t, out, "Claude (Anthropic) — not configured")
	assert.Contains(t, out, "Cursor / OpenCode — no key needed")
}

func TestAuthListAfterCredentialFileDeleted(t *testing.T) {
	env := newTestEnv(t)
	// no validation request can succeed within a millisecond
	env.run(t, "", "config", "set", "auth_timeout", "1ms")

	out := env.run(t, "", "auth", "add", "--key", "sk-ant-test-key-123456", "--force", "claude")
	assert.Contains(t, out, "Saved without validation.")

	out = env.run(t, "", "auth", "list", "--offline")
	assert.Contains(t, out, "sk-ant-•••3456")
	assert.NotContains(t, out, "Claude (Anthropic) — not configured")

	require.NoError(t, os.Remove(filepath.Join(env.home, ".arcanea", "credentials.json")))

	out = env.run(t, "", "auth", "list", "--offline")
	assert.Contains(t, out, "Claude (Anthropic) — not configured")
}

func TestInitReportsUnreadableCredential(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("USER", "arcanea-test")
	env.run(t, "", "config", "set", "auth_timeout", "1ms")
	env.run(t, "", "auth", "add", "--key", "sk-ant-test-key-123456", "--force", "claude")

	// the keystore key is bound to the user, a different one cannot decrypt
	t.Setenv("USER", "someone-else")
	out := env.run(t, "", "init", "--yes", "--dry-run", "--provider", "claude")
	assert.Contains(t, out, "Stored Claude (Anthropic) credential could not be read")
	assert.Contains(t, out, "Installation preview:")
}

func TestHookCommand(t *testing.T) {
	env := newTestEnv(t)
	in := `{"session_id": "cli-1", "hook_event_name": "UserPromptSubmit", "prompt": "fix the database migration pipeline"}`

	out := env.run(t, in, "hook", "--every-prompt")
	var got hook.Output
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got.HookSpecificOutput.AdditionalContext, "Lyssandria")

	// malformed input never fails the hook
	assert.Empty(t, env.run(t, "{", "hook", "--every-prompt"))
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	env.run(t, "", "config", "set", "default_level", "full")
	assert.Equal(t, "full\n", env.run(t, "", "config", "get", "default_level"))
	assert.Contains(t, env.run(t, "", "config", "list"), "default_level")

	info, err := os.Stat(env.config)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInitWarnsOnUnvalidatedEnvCredential(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "config", "set", "auth_timeout", "1ms")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key-123456")

	out := env.run(t, "", "init", "--yes", "--dry-run", "--provider", "claude")
	assert.Contains(t, out, "Claude (Anthropic) credential from ANTHROPIC_API_KEY did not validate")
	assert.NotContains(t, out, "authenticated")
}

package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NotNil(t, reg)

	ids := reg.PersonaIDs()
	assert.Len(t, ids, 10)
	assert.Equal(t, "lyssandria", ids[0])
	assert.Equal(t, "shinkami", ids[len(ids)-1])

	assert.Equal(t, []string{"claude", "openai", "gemini", "copilot", "cursor", "amazonq"}, reg.ProviderIDs())

	var names []string
	for _, e := range reg.Elements() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"fire", "water", "earth", "wind", "void"}, names)
}

func TestPersonaLookup(t *testing.T) {
	reg := Default()

	t.Run("by id", func(t *testing.T) {
		p, ok := reg.Persona("draconia")
		require.True(t, ok)
		assert.Equal(t, "Draconia", p.DisplayName)
		assert.Equal(t, "fire", p.Element)
	})

	t.Run("by display name case-insensitively", func(t *testing.T) {
		p, ok := reg.Persona("  ALERA ")
		require.True(t, ok)
		assert.Equal(t, "alera", p.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, ok := reg.Persona("nobody")
		assert.False(t, ok)
	})
}

func TestKeywordsAreDeduplicated(t *testing.T) {
	for _, p := range Default().Personas() {
		seen := make(map[string]bool)
		for _, k := range p.Keywords {
			assert.False(t, seen[k], "persona %s repeats keyword %q", p.ID, k)
			seen[k] = true
		}
	}
}

func TestProviderLookup(t *testing.T) {
	reg := Default()

	tests := []struct {
		name string
		want string
	}{
		{"claude", "claude"},
		{"chatgpt", "openai"},
		{"Google", "gemini"},
		{"github", "copilot"},
		{"opencode", "cursor"},
		{"aws", "amazonq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Provider(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ID)
		})
	}

	t.Run("unknown provider names valid set", func(t *testing.T) {
		_, err := reg.Provider("bard")
		require.Error(t, err)

		var upe *UnknownProviderError
		require.True(t, errors.As(err, &upe))
		assert.Equal(t, "bard", upe.Name)
		assert.Contains(t, err.Error(), "claude, openai, gemini, copilot, cursor, amazonq")
	})
}

func TestProviderContentFormats(t *testing.T) {
	frames := map[string]bool{"claude": true, "copilot": true, "cursor": true, "titled": true}
	methods := map[string]bool{"anthropic": true, "openai": true, "gemini": true, "github": true, "aws": true, "local": true}

	for _, p := range Default().Providers() {
		t.Run(p.ID, func(t *testing.T) {
			assert.True(t, frames[p.Content.Frame], "frame %q", p.Content.Frame)
			assert.True(t, methods[p.Auth], "auth %q", p.Auth)
			if p.Content.Frame == "titled" {
				assert.NotEmpty(t, p.Content.Title)
			}
			if p.Content.Has("setup") {
				assert.NotEmpty(t, p.Content.Setup)
			}
		})
	}

	claude, err := Default().Provider("claude")
	require.NoError(t, err)
	assert.True(t, claude.Content.Has("hooks"))
	assert.False(t, claude.Content.Has("setup"))

	openai, err := Default().Provider("openai")
	require.NoError(t, err)
	assert.Equal(t, FeatureAgents, openai.Content.Setup[3].Requires)
}

func TestCredentialFromEnv(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}
	reg := Default()

	t.Run("first set variable wins", func(t *testing.T) {
		p, err := reg.Provider("gemini")
		require.NoError(t, err)

		v, src := p.CredentialFromEnv(env(map[string]string{
			"GOOGLE_GENERATIVE_AI_API_KEY": "second",
		}))
		assert.Equal(t, "second", v)
		assert.Equal(t, "GOOGLE_GENERATIVE_AI_API_KEY", src)

		v, src = p.CredentialFromEnv(env(map[string]string{
			"GEMINI_API_KEY":               "first",
			"GOOGLE_GENERATIVE_AI_API_KEY": "second",
		}))
		assert.Equal(t, "first", v)
		assert.Equal(t, "GEMINI_API_KEY", src)
	})

	t.Run("joined variables need all parts", func(t *testing.T) {
		p, err := reg.Provider("amazonq")
		require.NoError(t, err)

		v, _ := p.CredentialFromEnv(env(map[string]string{"AWS_ACCESS_KEY_ID": "AKIA"}))
		assert.Empty(t, v)

		v, src := p.CredentialFromEnv(env(map[string]string{
			"AWS_ACCESS_KEY_ID":     "AKIA",
			"AWS_SECRET_ACCESS_KEY": "secret",
		}))
		assert.Equal(t, "AKIA:secret", v)
		assert.Equal(t, "AWS_ACCESS_KEY_ID+AWS_SECRET_ACCESS_KEY", src)
	})

	t.Run("provider without env vars", func(t *testing.T) {
		p, err := reg.Provider("cursor")
		require.NoError(t, err)
		v, src := p.CredentialFromEnv(env(nil))
		assert.Empty(t, v)
		assert.Empty(t, src)
	})
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	providers := []byte("providers:\n  - id: claude\n")

	t.Run("duplicate persona", func(t *testing.T) {
		personas := []byte(`personas:
  - id: a
    keywords: [x]
  - id: a
    keywords: [y]
`)
		_, err := Load(personas, providers)
		assert.ErrorContains(t, err, "duplicate persona id")
	})

	t.Run("unknown element", func(t *testing.T) {
		personas := []byte(`personas:
  - id: a
    element: plasma
    keywords: [x]
elements:
  - name: fire
`)
		_, err := Load(personas, providers)
		assert.ErrorContains(t, err, "unknown element")
	})

	t.Run("duplicate alias", func(t *testing.T) {
		personas := []byte("personas:\n  - id: a\n    keywords: [x]\n")
		_, err := Load(personas, []byte(`providers:
  - id: one
    aliases: [x]
  - id: two
    aliases: [x]
`))
		assert.ErrorContains(t, err, "duplicate provider name")
	})
}

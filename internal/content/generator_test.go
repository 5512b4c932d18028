package content

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

func newTestGenerator() *Generator {
	return NewGenerator(registry.Default(), WithProjectName("demo"))
}

func TestRender_UnknownProvider(t *testing.T) {
	_, err := newTestGenerator().Render(registry.LevelStandard, "bard", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRender_Claude(t *testing.T) {
	g := newTestGenerator()

	t.Run("minimal only carries instructions", func(t *testing.T) {
		set, err := g.Render(registry.LevelMinimal, "claude", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{ArtifactInstructions}, set.Names())

		inst, _ := set.Get(ArtifactInstructions)
		assert.True(t, strings.HasPrefix(inst.Content, "# demo — Arcanea Enhanced"))
		assert.Contains(t, inst.Content, "## Voice Rules")
		assert.NotContains(t, inst.Content, "## The Ten Guardians")
		assert.Equal(t, []registry.Feature{registry.FeaturePersonality}, inst.Sections)
	})

	t.Run("standard adds routing and skills", func(t *testing.T) {
		set, err := g.Render(registry.LevelStandard, "claude", nil)
		require.NoError(t, err)

		names := set.Names()
		assert.Contains(t, names, ArtifactHooks)
		assert.Contains(t, names, "skill/arcanea-canon")
		assert.NotContains(t, names, "agent/lyssandria")
		assert.NotContains(t, names, ArtifactMCPServers)

		inst, _ := set.Get(ArtifactInstructions)
		assert.Contains(t, inst.Content, "- **Lyssandria** (Foundation Gate, 396 Hz) — Earth, survival, security")
		assert.Contains(t, inst.Content, "`arcanea-voice`")

		hooks, _ := set.Get(ArtifactHooks)
		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(hooks.Content), &parsed))
		assert.Contains(t, hooks.Content, `"command": "arcanea hook"`)
		assert.Contains(t, hooks.Content, "UserPromptSubmit")

		skill, _ := set.Get("skill/arcanea-voice")
		assert.True(t, strings.HasPrefix(skill.Content, "---\nname: Arcanea Voice\n"))
		assert.Contains(t, skill.Content, "# Arcanea Voice Skill")
	})

	t.Run("full adds agents commands and servers", func(t *testing.T) {
		set, err := g.Render(registry.LevelFull, "claude", nil)
		require.NoError(t, err)

		agent, ok := set.Get("agent/draconia")
		require.True(t, ok)
		assert.Equal(t, registry.FeatureAgents, agent.Feature)
		assert.Equal(t, KindAgent, agent.Kind())
		assert.Equal(t, "draconia", agent.ID())
		assert.Contains(t, agent.Content, "name: draconia")
		assert.Contains(t, agent.Content, "**Godbeast**: Draconis")

		cmd, ok := set.Get("command/channel")
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(cmd.Content, "---\nname: channel\ndescription: Channel a Guardian for specialized guidance\n---\n\n"))
		assert.Contains(t, cmd.Content, "Usage: /channel <guardian-name>")

		servers, ok := set.Get(ArtifactMCPServers)
		require.True(t, ok)
		var parsed struct {
			MCPServers map[string]struct {
				Type    string   `json:"type"`
				Command string   `json:"command"`
				Args    []string `json:"args"`
			} `json:"mcpServers"`
		}
		require.NoError(t, json.Unmarshal([]byte(servers.Content), &parsed))
		assert.Equal(t, "stdio", parsed.MCPServers["arcanea"].Type)
		assert.Equal(t, []string{"mcp"}, parsed.MCPServers["arcanea"].Args)

		_, ok = set.Get("lore/lyssandria")
		assert.False(t, ok)
	})

	t.Run("luminor adds lore and tokens", func(t *testing.T) {
		set, err := g.Render(registry.LevelLuminor, "claude", nil)
		require.NoError(t, err)

		lore, ok := set.Get("lore/shinkami")
		require.True(t, ok)
		assert.Contains(t, lore.Content, "Amaterasu")

		tokens, ok := set.Get(ArtifactDesignTokens)
		require.True(t, ok)
		assert.Contains(t, tokens.Content, "--arcanea-arcane-crystal: #7fffd4;")

		inst, _ := set.Get(ArtifactInstructions)
		assert.Contains(t, inst.Content, "## Arcanea Lore")
		assert.Contains(t, inst.Content, "## Arcanea Design System")
		assert.Equal(t, registry.LevelLuminor.Features()[0], inst.Sections[0])
		assert.Len(t, inst.Sections, 5)
	})
}

func TestRender_SectionOrderIsFixed(t *testing.T) {
	set, err := newTestGenerator().Render(registry.LevelLuminor, "openai", nil)
	require.NoError(t, err)
	inst, _ := set.Get(ArtifactInstructions)

	order := []string{"# Arcanea Intelligence\n", "## Voice Rules", "## The Ten Guardians", "## Available Skills", "## Arcanea Lore", "## Arcanea Design System"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(inst.Content, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestRender_ChanneledPersona(t *testing.T) {
	p, ok := registry.Default().Persona("alera")
	require.True(t, ok)

	set, err := newTestGenerator().Render(registry.LevelMinimal, "gemini", &p)
	require.NoError(t, err)
	inst, _ := set.Get(ArtifactInstructions)
	assert.Contains(t, inst.Content, "## Channeled Guardian")
	assert.Contains(t, inst.Content, "You are channeling **Alera**")
	assert.Contains(t, inst.Content, "*Speak true.*")
}

func TestRender_OpenAI(t *testing.T) {
	g := newTestGenerator()

	set, err := g.Render(registry.LevelStandard, "chatgpt", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", set.Provider)
	assert.Equal(t, []string{ArtifactInstructions, ArtifactSetup, ArtifactGPTConfig}, set.Names())

	gpt, _ := set.Get(ArtifactGPTConfig)
	var cfg struct {
		Name         string `json:"name"`
		Instructions string `json:"instructions"`
		Capabilities struct {
			WebBrowsing bool `json:"web_browsing"`
			DallE       bool `json:"dalle"`
		} `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal([]byte(gpt.Content), &cfg))
	assert.Equal(t, "Arcanea Intelligence", cfg.Name)
	assert.Contains(t, cfg.Instructions, "Arcanea Intelligence OS")
	assert.True(t, cfg.Capabilities.WebBrowsing)
	assert.False(t, cfg.Capabilities.DallE)

	set, err = g.Render(registry.LevelFull, "openai", nil)
	require.NoError(t, err)
	agent, ok := set.Get("agent/lyssandria")
	require.True(t, ok)
	var guardian struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal([]byte(agent.Content), &guardian))
	assert.Equal(t, "Arcanea — Lyssandria", guardian.Name)
	assert.Equal(t, "Lyssandria, Guardian of the Foundation Gate (396 Hz). Domain: Earth, survival, security.", guardian.Description)
}

func TestRender_CopilotCapsPrompt(t *testing.T) {
	set, err := newTestGenerator().Render(registry.LevelLuminor, "copilot", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{ArtifactInstructions}, set.Names())

	inst, _ := set.Get(ArtifactInstructions)
	assert.True(t, strings.HasPrefix(inst.Content, "# "+CopilotMarker))
	assert.Contains(t, inst.Content, "## Code Style")

	body := strings.TrimPrefix(inst.Content, "# "+CopilotMarker+"\n\n")
	prompt := body[:strings.Index(body, "\n\n## Code Style")]
	assert.LessOrEqual(t, utf8.RuneCountInString(prompt), CopilotMaxPrompt)
}

func TestRender_Cursor(t *testing.T) {
	set, err := newTestGenerator().Render(registry.LevelFull, "opencode", nil)
	require.NoError(t, err)

	inst, _ := set.Get(ArtifactInstructions)
	assert.True(t, strings.HasPrefix(inst.Content, "# "+CursorMarker+"\n# Level: full\n"))

	rule, ok := set.Get(ArtifactRules)
	require.True(t, ok)
	assert.Contains(t, rule.Content, "alwaysApply: true")

	guardian, ok := set.Get("guardian/leyla")
	require.True(t, ok)
	assert.Contains(t, guardian.Content, "alwaysApply: false")

	hooks, ok := set.Get(ArtifactHooks)
	require.True(t, ok)
	assert.Contains(t, hooks.Content, "beforeSubmitPrompt")

	_, ok = set.Get(ArtifactMCPServers)
	assert.True(t, ok)
}

func TestRender_AmazonQSetup(t *testing.T) {
	set, err := newTestGenerator().Render(registry.LevelFull, "amazonq", nil)
	require.NoError(t, err)

	setup, ok := set.Get(ArtifactSetup)
	require.True(t, ok)
	assert.Contains(t, setup.Content, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	assert.Contains(t, setup.Content, "`arcanea auth add amazonq`")

	_, ok = set.Get("guardian/ino")
	assert.True(t, ok)
}

func TestSetupGuide_GatesStepsByLevel(t *testing.T) {
	openai, err := registry.Default().Provider("openai")
	require.NoError(t, err)

	t.Run("minimal keeps ungated steps", func(t *testing.T) {
		guide := setupGuide(openai, registry.LevelMinimal)
		assert.Contains(t, guide, "2. Paste the contents of `system-prompt.md`.")
		assert.NotContains(t, guide, "custom-gpt-config.json")
		assert.NotContains(t, guide, "\n3. ")
	})

	t.Run("full numbers every step", func(t *testing.T) {
		guide := setupGuide(openai, registry.LevelFull)
		assert.Contains(t, guide, "3. To create a Custom GPT")
		assert.Contains(t, guide, "4. Create one GPT per Guardian")
	})

	t.Run("no steps falls back to a generic one", func(t *testing.T) {
		p := registry.Provider{ID: "local", DisplayName: "Local Tool"}
		guide := setupGuide(p, registry.LevelStandard)
		assert.Contains(t, guide, "1. Open Local Tool and load the generated instructions.")
		assert.NotContains(t, guide, "## Credentials")
	})
}

func TestHookConfig_UnknownFormat(t *testing.T) {
	_, err := hookConfig("vim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown hook format "vim"`)
}

func TestRender_IsDeterministic(t *testing.T) {
	g := newTestGenerator()
	for _, id := range registry.Default().ProviderIDs() {
		a, err := g.Render(registry.LevelLuminor, id, nil)
		require.NoError(t, err)
		b, err := g.Render(registry.LevelLuminor, id, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b, id)
	}
}

type stubLore struct{}

func (stubLore) Canon() string { return "" }
func (stubLore) Guardian(id string) (string, bool) {
	if id == "ino" {
		return "bridge lore", true
	}
	return "", false
}

func TestRender_CustomLore(t *testing.T) {
	g := NewGenerator(registry.Default(), WithLore(stubLore{}))
	set, err := g.Render(registry.LevelLuminor, "claude", nil)
	require.NoError(t, err)

	var lore []string
	for _, a := range set.Artifacts {
		if a.Kind() == KindLore {
			lore = append(lore, a.Name)
		}
	}
	assert.Equal(t, []string{"lore/ino"}, lore)

	inst, _ := set.Get(ArtifactInstructions)
	assert.NotContains(t, inst.Content, "## Arcanea Lore")
	assert.NotContains(t, inst.Sections, registry.FeatureLore)
}

package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &Store{Now: c.now, NewID: func() string { return "0b7c1f3e-1111-4222-8333-444455556666" }}, c
}

func TestRead_Missing(t *testing.T) {
	s, _ := newTestStore()
	doc, err := s.Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, doc.Overlays)
	assert.Equal(t, CoreVersion, doc.Arcanea.CoreVersion)
	assert.NotEmpty(t, doc.Arcanea.InstallationID)
}

func TestRead_CorruptOrInvalidIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{oops"},
		{"wrong shape", `{"arcanea": 1, "overlays": []}`},
		{"unknown level", `{"arcanea":{"coreVersion":"1.0.0","installedAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"},
			"overlays":{"claude":{"packageVersion":"1.0.0","level":"epic","installedAt":"x","updatedAt":"x","filesManaged":[]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), DirPermission))
			require.NoError(t, os.WriteFile(Path(dir), []byte(tt.data), FilePermission))

			s, _ := newTestStore()
			doc, err := s.Read(dir)
			require.NoError(t, err)
			assert.Empty(t, doc.Overlays)
		})
	}
}

func TestUpsert_CreatesDocument(t *testing.T) {
	dir := t.TempDir()
	s, c := newTestStore()

	doc, err := s.Upsert(dir, "claude", Entry{
		Level:        registry.LevelStandard,
		FilesManaged: []string{".claude/CLAUDE.md", ".claude/skills/arcanea-voice/SKILL.md"},
		Checksums:    map[string]string{".claude/CLAUDE.md": "ab"},
	})
	require.NoError(t, err)

	entry, ok := doc.Entry("claude")
	require.True(t, ok)
	assert.Equal(t, PackageVersion, entry.PackageVersion)
	assert.Equal(t, c.t, entry.InstalledAt)
	assert.Equal(t, c.t, entry.UpdatedAt)
	assert.Equal(t, []string{}, entry.FilesCustomized)
	assert.Equal(t, "0b7c1f3e-1111-4222-8333-444455556666", doc.Arcanea.InstallationID)

	// Written document parses and keeps level names
	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	overlays := raw["overlays"].(map[string]any)
	assert.Equal(t, "standard", overlays["claude"].(map[string]any)["level"])
}

func TestUpsert_PreservesInstalledAtAndCustomized(t *testing.T) {
	dir := t.TempDir()
	s, c := newTestStore()
	first := c.t

	_, err := s.Upsert(dir, "claude", Entry{
		Level:           registry.LevelStandard,
		FilesManaged:    []string{".claude/CLAUDE.md"},
		FilesCustomized: []string{".claude/agents/guardians/leyla.md"},
	})
	require.NoError(t, err)
	_, err = s.Upsert(dir, "openai", Entry{Level: registry.LevelMinimal, FilesManaged: []string{".arcanea/chatgpt/system-prompt.md"}})
	require.NoError(t, err)

	c.advance(time.Hour)
	doc, err := s.Upsert(dir, "claude", Entry{
		Level:        registry.LevelFull,
		FilesManaged: []string{".claude/CLAUDE.md", ".mcp.json"},
	})
	require.NoError(t, err)

	entry, _ := doc.Entry("claude")
	assert.Equal(t, registry.LevelFull, entry.Level)
	assert.Equal(t, first, entry.InstalledAt)
	assert.Equal(t, c.t, entry.UpdatedAt)
	assert.Equal(t, []string{".claude/agents/guardians/leyla.md"}, entry.FilesCustomized, "nil carries the old set forward")

	doc, err = s.Upsert(dir, "claude", Entry{
		Level:           registry.LevelFull,
		FilesManaged:    []string{".claude/CLAUDE.md", ".mcp.json"},
		FilesCustomized: []string{".claude/CLAUDE.md"},
	})
	require.NoError(t, err)
	entry, _ = doc.Entry("claude")
	assert.Equal(t, first, entry.InstalledAt)
	assert.Equal(t, []string{".claude/CLAUDE.md"}, entry.FilesCustomized, "a computed set replaces the old one")
	assert.Equal(t, c.t, doc.Arcanea.UpdatedAt)
	assert.Equal(t, first, doc.Arcanea.InstalledAt)

	// Other overlays are untouched
	reread, err := s.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"claude", "openai"}, reread.Providers())
	openai, _ := reread.Entry("openai")
	assert.Equal(t, registry.LevelMinimal, openai.Level)
	assert.True(t, entry.IsCustomized(".claude/CLAUDE.md"))
	assert.False(t, entry.IsCustomized(".mcp.json"))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestStore()

	removed, err := s.Remove(dir, "claude")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoFileExists(t, Path(dir), "removing from a missing manifest writes nothing")

	_, err = s.Upsert(dir, "claude", Entry{Level: registry.LevelMinimal})
	require.NoError(t, err)
	_, err = s.Upsert(dir, "copilot", Entry{Level: registry.LevelMinimal})
	require.NoError(t, err)

	removed, err = s.Remove(dir, "claude")
	require.NoError(t, err)
	assert.True(t, removed)

	doc, err := s.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"copilot"}, doc.Providers())
}

func TestValidate(t *testing.T) {
	valid := `{"arcanea":{"coreVersion":"1.0.0","installedAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"},
		"overlays":{"gemini":{"packageVersion":"1.0.0","level":"luminor","installedAt":"2026-01-01T00:00:00Z",
		"updatedAt":"2026-01-01T00:00:00Z","filesManaged":[".arcanea/gemini/SETUP.md"],"filesCustomized":[]}}}`

	result, err := Validate([]byte(valid))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	invalid := `{"arcanea":{"coreVersion":"1.0.0","installedAt":"x","updatedAt":"x"},
		"overlays":{"gemini":{"packageVersion":"1.0.0","level":"mega","installedAt":"x","updatedAt":"x"}}}`
	result, err = Validate([]byte(invalid))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	paths := map[string]string{}
	for _, issue := range result.Issues {
		paths[issue.Keyword] = issue.Path
		assert.NotEmpty(t, issue.String())
	}
	assert.Equal(t, "/overlays/gemini/level", paths["enum"])
	assert.Equal(t, "/overlays/gemini", paths["required"])

	_, err = Validate([]byte("{"))
	assert.Error(t, err)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.0.0-beta.1", "1.0.0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got, err := CompareVersions(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CompareVersions("banana", "1.0.0")
	assert.Error(t, err)
}

func TestOutdated(t *testing.T) {
	original := PackageVersion
	PackageVersion = "1.2.0"
	defer func() { PackageVersion = original }()

	assert.True(t, Outdated(Entry{PackageVersion: "1.1.9"}))
	assert.False(t, Outdated(Entry{PackageVersion: "1.2.0"}))
	assert.False(t, Outdated(Entry{PackageVersion: "v1.3.0"}))
	assert.True(t, Outdated(Entry{PackageVersion: ""}))
}

// Package manifest records which overlays are installed in a project, in
// .arcanea/overlay-manifest.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const (
	Dir      = ".arcanea"
	FileName = "overlay-manifest.json"

	// CoreVersion is the manifest document format version.
	CoreVersion = "1.0.0"

	// File permissions
	DirPermission  = 0755 // Directory permission (rwxr-xr-x)
	FilePermission = 0644 // File permission (rw-r--r--)
)

// PackageVersion is the version of the overlay content this binary generates.
var PackageVersion = "1.0.0"

// Header describes the installation as a whole.
type Header struct {
	CoreVersion    string    `json:"coreVersion"`
	InstallationID string    `json:"installationId,omitempty"`
	InstalledAt    time.Time `json:"installedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Entry records one provider overlay. Paths are relative to the project dir.
type Entry struct {
	PackageVersion  string            `json:"packageVersion"`
	Level           registry.Level    `json:"level"`
	InstalledAt     time.Time         `json:"installedAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	FilesManaged    []string          `json:"filesManaged"`
	FilesCustomized []string          `json:"filesCustomized"`
	Checksums       map[string]string `json:"checksums,omitempty"`
}

// IsCustomized reports whether path was recorded as edited by the creator.
func (e Entry) IsCustomized(path string) bool {
	for _, p := range e.FilesCustomized {
		if p == path {
			return true
		}
	}
	return false
}

// Document is the whole manifest file.
type Document struct {
	Arcanea  Header           `json:"arcanea"`
	Overlays map[string]Entry `json:"overlays"`
}

// Entry returns the overlay entry for a provider.
func (d *Document) Entry(provider string) (Entry, bool) {
	e, ok := d.Overlays[provider]
	return e, ok
}

// Providers returns the installed provider ids, sorted.
func (d *Document) Providers() []string {
	ids := make([]string, 0, len(d.Overlays))
	for id := range d.Overlays {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the manifest location for a project.
func Path(projectDir string) string {
	return filepath.Join(projectDir, Dir, FileName)
}

// Store reads and writes manifests. Now and NewID are replaceable in tests.
type Store struct {
	Now   func() time.Time
	NewID func() string
}

// NewStore creates a store using the wall clock and random UUIDs.
func NewStore() *Store {
	return &Store{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: func() string { return uuid.New().String() },
	}
}

var defaultStore = NewStore()

// Read loads the project manifest. See Store.Read.
func Read(projectDir string) (*Document, error) {
	return defaultStore.Read(projectDir)
}

// Upsert records an overlay entry. See Store.Upsert.
func Upsert(projectDir, provider string, entry Entry) (*Document, error) {
	return defaultStore.Upsert(projectDir, provider, entry)
}

// Remove deletes an overlay entry. See Store.Remove.
func Remove(projectDir, provider string) (bool, error) {
	return defaultStore.Remove(projectDir, provider)
}

func (s *Store) empty() *Document {
	now := s.Now()
	return &Document{
		Arcanea: Header{
			CoreVersion:    CoreVersion,
			InstallationID: s.NewID(),
			InstalledAt:    now,
			UpdatedAt:      now,
		},
		Overlays: make(map[string]Entry),
	}
}

// Read loads the project manifest. A missing, unparseable or schema-invalid
// file reads as an empty document; only I/O failures are errors.
func (s *Store) Read(projectDir string) (*Document, error) {
	path := Path(projectDir)
	log.Debug().Str("path", path).Msg("Loading overlay manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Msg("No overlay manifest found")
			return s.empty(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	result, err := Validate(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Overlay manifest is unreadable, treating as empty")
		return s.empty(), nil
	}
	if !result.Valid {
		log.Warn().Str("path", path).Int("issues", len(result.Issues)).Msg("Overlay manifest failed validation, treating as empty")
		return s.empty(), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Overlay manifest is unreadable, treating as empty")
		return s.empty(), nil
	}
	if doc.Overlays == nil {
		doc.Overlays = make(map[string]Entry)
	}
	return &doc, nil
}

// Upsert merges entry into the manifest under provider. An existing entry keeps
// its installedAt. Its customized files are carried forward when
// entry.FilesCustomized is nil; a non-nil list replaces them.
func (s *Store) Upsert(projectDir, provider string, entry Entry) (*Document, error) {
	doc, err := s.Read(projectDir)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if entry.PackageVersion == "" {
		entry.PackageVersion = PackageVersion
	}
	if entry.InstalledAt.IsZero() {
		entry.InstalledAt = now
	}
	entry.UpdatedAt = now

	existing, ok := doc.Overlays[provider]
	if ok {
		entry.InstalledAt = existing.InstalledAt
	}
	if ok && entry.FilesCustomized == nil {
		entry.FilesCustomized = union(existing.FilesCustomized, nil)
	} else {
		entry.FilesCustomized = union(nil, entry.FilesCustomized)
	}
	if entry.FilesManaged == nil {
		entry.FilesManaged = []string{}
	}

	doc.Overlays[provider] = entry
	if doc.Arcanea.InstallationID == "" {
		doc.Arcanea.InstallationID = s.NewID()
	}
	doc.Arcanea.UpdatedAt = now

	if err := write(projectDir, doc); err != nil {
		return nil, err
	}
	log.Debug().Str("provider", provider).Str("level", entry.Level.String()).Msg("Recorded overlay")
	return doc, nil
}

// Remove deletes the provider entry. It reports whether an entry existed.
func (s *Store) Remove(projectDir, provider string) (bool, error) {
	doc, err := s.Read(projectDir)
	if err != nil {
		return false, err
	}
	if _, ok := doc.Overlays[provider]; !ok {
		return false, nil
	}

	delete(doc.Overlays, provider)
	doc.Arcanea.UpdatedAt = s.Now()
	if err := write(projectDir, doc); err != nil {
		return false, err
	}
	return true, nil
}

func write(projectDir string, doc *Document) error {
	path := Path(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), DirPermission); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), FilePermission); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// union returns the sorted, de-duplicated union of a and b.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := []string{}
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

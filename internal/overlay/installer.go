// Package overlay writes generated artifacts into each assistant's config
// locations and keeps the project manifest in step.
package overlay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/manifest"
	"github.com/arcanea-realm/arcanea/internal/registry"
)

// File permissions
const (
	DirPermission  = 0755 // Directory permission (rwxr-xr-x)
	FilePermission = 0644 // File permission (rw-r--r--)
)

// DefaultUpdateLevel is used by Update when no level was recorded.
const DefaultUpdateLevel = registry.LevelStandard

// Detection describes an existing overlay in a project.
type Detection struct {
	Detected      bool
	ExistingLevel *registry.Level
}

// Preview lists what Install would do without doing it.
type Preview struct {
	FilesToCreate []string
	FilesToModify []string
	EstimatedSize string
}

// Result reports the outcome of Install or Update.
type Result struct {
	Provider      string
	Level         registry.Level
	Success       bool
	FilesCreated  []string
	FilesModified []string
	Warnings      []string
	NextSteps     []string
}

// UninstallResult reports which files were removed and which were kept.
type UninstallResult struct {
	Provider     string
	FilesRemoved []string
	FilesKept    []string
	Warnings     []string
}

// Installer installs one provider overlay.
type Installer struct {
	layout  Layout
	gen     *content.Generator
	store   *manifest.Store
	persona *registry.Persona
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithPersona channels a Guardian in the generated instructions.
func WithPersona(p *registry.Persona) InstallerOption {
	return func(i *Installer) {
		i.persona = p
	}
}

// NewInstaller creates an installer for a layout. A nil store uses the wall clock.
func NewInstaller(layout Layout, gen *content.Generator, store *manifest.Store, opts ...InstallerOption) (*Installer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = manifest.NewStore()
	}
	i := &Installer{layout: layout, gen: gen, store: store}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// ForProvider creates an installer for a provider id or alias.
func ForProvider(reg *registry.Registry, provider string, gen *content.Generator, store *manifest.Store, opts ...InstallerOption) (*Installer, error) {
	p, err := reg.Provider(provider)
	if err != nil {
		return nil, err
	}
	layout, err := LayoutFor(p.ID)
	if err != nil {
		return nil, err
	}
	return NewInstaller(layout, gen, store, opts...)
}

// Provider returns the canonical provider id.
func (i *Installer) Provider() string {
	return i.layout.Provider
}

// Detect reports whether the overlay, or any of its roots, exists in dir.
func (i *Installer) Detect(dir string) (Detection, error) {
	doc, err := i.store.Read(dir)
	if err != nil {
		return Detection{}, err
	}

	var d Detection
	if entry, ok := doc.Entry(i.layout.Provider); ok {
		level := entry.Level
		d.Detected = true
		d.ExistingLevel = &level
		return d, nil
	}
	for _, root := range i.layout.Roots {
		if exists(filepath.Join(dir, filepath.FromSlash(root))) {
			d.Detected = true
			break
		}
	}
	return d, nil
}

// action is the planned change for one file.
type action int

const (
	actionNone action = iota
	actionCreate
	actionModify
	actionKeep // left untouched
)

type decision struct {
	file       plannedFile
	action     action
	data       []byte
	warning    string
	customized bool
}

// Preview reports the files Install would create or modify. It only reads.
func (i *Installer) Preview(dir string, level registry.Level) (*Preview, error) {
	decisions, _, err := i.decide(dir, level)
	if err != nil {
		return nil, err
	}

	p := &Preview{FilesToCreate: []string{}, FilesToModify: []string{}}
	size := 0
	for _, d := range decisions {
		size += len(d.file.Content)
		switch d.action {
		case actionCreate:
			p.FilesToCreate = append(p.FilesToCreate, d.file.Path)
		case actionModify:
			p.FilesToModify = append(p.FilesToModify, d.file.Path)
		}
	}
	p.EstimatedSize = estimateSize(size)
	return p, nil
}

// Install writes the overlay at level and records it in the manifest.
// Running it again with the same level changes nothing.
func (i *Installer) Install(dir string, level registry.Level) (*Result, error) {
	log.Debug().Str("provider", i.layout.Provider).Str("level", level.String()).Str("dir", dir).Msg("Installing overlay")

	decisions, entry, err := i.decide(dir, level)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Provider:      i.layout.Provider,
		Level:         level,
		FilesCreated:  []string{},
		FilesModified: []string{},
		Warnings:      []string{},
	}

	customized := []string{}
	checksums := make(map[string]string)
	for k, v := range entry.Checksums {
		checksums[k] = v
	}

	for _, d := range decisions {
		if d.warning != "" {
			result.Warnings = append(result.Warnings, d.warning)
			log.Warn().Str("file", d.file.Path).Msg(d.warning)
		}
		if d.customized {
			customized = append(customized, d.file.Path)
			continue
		}

		switch d.action {
		case actionCreate, actionModify:
			if err := writeFile(dir, d.file.Path, d.data); err != nil {
				return result, err
			}
			if d.action == actionCreate {
				result.FilesCreated = append(result.FilesCreated, d.file.Path)
			} else {
				result.FilesModified = append(result.FilesModified, d.file.Path)
			}
			checksums[d.file.Path] = checksum(d.data)
		case actionNone:
			if data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(d.file.Path))); err == nil {
				checksums[d.file.Path] = checksum(data)
			}
		}
	}

	managed := i.managedFiles(dir, decisions, entry.FilesManaged)
	for k := range checksums {
		if !contains(managed, k) {
			delete(checksums, k)
		}
	}

	if _, err := i.store.Upsert(dir, i.layout.Provider, manifest.Entry{
		Level:           level,
		FilesManaged:    managed,
		FilesCustomized: customized,
		Checksums:       checksums,
	}); err != nil {
		return result, fmt.Errorf("failed to record overlay: %w", err)
	}

	result.Success = true
	if i.layout.NextSteps != nil {
		result.NextSteps = i.layout.NextSteps(level)
	}
	log.Info().
		Str("provider", i.layout.Provider).
		Int("created", len(result.FilesCreated)).
		Int("modified", len(result.FilesModified)).
		Int("warnings", len(result.Warnings)).
		Msg("Installed overlay")
	return result, nil
}

// Update re-installs at the recorded level, or DefaultUpdateLevel when
// nothing is recorded.
func (i *Installer) Update(dir string) (*Result, error) {
	level := DefaultUpdateLevel
	d, err := i.Detect(dir)
	if err != nil {
		return nil, err
	}
	if d.ExistingLevel != nil {
		level = *d.ExistingLevel
	}
	return i.Install(dir, level)
}

// Uninstall removes files the overlay owns outright and drops its manifest
// entry. Shared and customized files are kept and reported.
func (i *Installer) Uninstall(dir string) (*UninstallResult, error) {
	result := &UninstallResult{Provider: i.layout.Provider, FilesRemoved: []string{}, FilesKept: []string{}}

	doc, err := i.store.Read(dir)
	if err != nil {
		return nil, err
	}
	entry, ok := doc.Entry(i.layout.Provider)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no %s overlay is installed", i.layout.Provider))
		return result, nil
	}

	for _, rel := range entry.FilesManaged {
		if err := i.layout.checkPath(rel); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is not an Arcanea file, left in place", rel))
			log.Warn().Err(err).Msg("Ignoring manifest path")
			continue
		}
		full := filepath.Join(dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return result, fmt.Errorf("failed to read %s: %w", rel, err)
		}

		t, known := i.layout.targetFor(rel)
		switch {
		case known && t.Strategy.Shared():
			result.FilesKept = append(result.FilesKept, rel)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is shared with other content, remove the Arcanea section by hand", rel))
			continue
		case entry.IsCustomized(rel) || entry.Checksums[rel] != checksum(data):
			result.FilesKept = append(result.FilesKept, rel)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s has local changes, kept", rel))
			continue
		}

		if err := os.Remove(full); err != nil {
			return result, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		result.FilesRemoved = append(result.FilesRemoved, rel)
		i.pruneDirs(dir, rel)
	}

	if _, err := i.store.Remove(dir, i.layout.Provider); err != nil {
		return result, fmt.Errorf("failed to update manifest: %w", err)
	}
	log.Info().Str("provider", i.layout.Provider).Int("removed", len(result.FilesRemoved)).Msg("Uninstalled overlay")
	return result, nil
}

// Verify checks an installed overlay and returns the problems found.
func (i *Installer) Verify(dir string) ([]string, error) {
	var issues []string

	if !exists(manifest.Path(dir)) {
		return []string{manifest.FileName + " is missing, run arcanea install"}, nil
	}
	doc, err := i.store.Read(dir)
	if err != nil {
		return nil, err
	}
	entry, ok := doc.Entry(i.layout.Provider)
	if !ok {
		return []string{fmt.Sprintf("%s does not contain %s overlay entry", manifest.FileName, i.layout.Provider)}, nil
	}

	for _, rel := range i.layout.Required {
		if !exists(filepath.Join(dir, filepath.FromSlash(rel))) {
			issues = append(issues, "Missing required file: "+rel)
		}
	}
	for _, rel := range entry.FilesManaged {
		if contains(i.layout.Required, rel) {
			continue
		}
		if !exists(filepath.Join(dir, filepath.FromSlash(rel))) {
			issues = append(issues, "Managed file is missing: "+rel)
		}
	}
	for _, t := range i.layout.Targets {
		if t.Marker == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(t.Path)))
		if err == nil && !strings.Contains(string(data), t.Marker) {
			issues = append(issues, fmt.Sprintf("%s does not contain the %q marker", t.Path, t.Marker))
		}
	}
	if manifest.Outdated(entry) {
		issues = append(issues, fmt.Sprintf("overlay was generated by version %s, current is %s; run arcanea update",
			entry.PackageVersion, manifest.PackageVersion))
	}
	return issues, nil
}

// decide renders the overlay and works out what each file needs.
func (i *Installer) decide(dir string, level registry.Level) ([]decision, manifest.Entry, error) {
	set, err := i.gen.Render(level, i.layout.Provider, i.persona)
	if err != nil {
		return nil, manifest.Entry{}, err
	}
	files, err := i.layout.plan(set)
	if err != nil {
		return nil, manifest.Entry{}, err
	}

	doc, err := i.store.Read(dir)
	if err != nil {
		return nil, manifest.Entry{}, err
	}
	entry, _ := doc.Entry(i.layout.Provider)

	decisions := make([]decision, 0, len(files))
	for _, f := range files {
		d, err := decideFile(dir, f, entry)
		if err != nil {
			return nil, manifest.Entry{}, err
		}
		decisions = append(decisions, d)
	}
	return decisions, entry, nil
}

func decideFile(dir string, f plannedFile, entry manifest.Entry) (decision, error) {
	d := decision{file: f, data: []byte(f.Content)}

	existing, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
	if err != nil {
		if os.IsNotExist(err) {
			d.action = actionCreate
			return d, nil
		}
		return d, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	if string(existing) == f.Content {
		d.action = actionNone
		return d, nil
	}
	ours := !entry.IsCustomized(f.Path) && entry.Checksums[f.Path] == checksum(existing)

	switch f.Target.Strategy {
	case StrategySkip:
		d.action = actionKeep
		if ours {
			d.action = actionNone
		}

	case StrategyCreate:
		if ours {
			d.action = actionModify
			return d, nil
		}
		d.action = actionKeep
		d.customized = true
		d.warning = fmt.Sprintf("%s has local changes, left untouched", f.Path)

	case StrategyAppendMarker:
		text := string(existing)
		if !strings.Contains(text, f.Target.Marker) {
			d.action = actionModify
			d.data = []byte(appendSection(text, f.Content))
			return d, nil
		}
		// Our section is last in the file; untouched since the last install it
		// follows the level, user content above it stays.
		if idx := strings.Index(text, firstLine(f.Content)); ours && idx >= 0 {
			if refreshed := text[:idx] + f.Content; refreshed != text {
				d.action = actionModify
				d.data = []byte(refreshed)
				return d, nil
			}
		}
		d.action = actionKeep
		d.warning = fmt.Sprintf("%s already contains %q, skipped", f.Path, f.Target.Marker)

	case StrategyMergeJSON:
		merged, changed, conflicts, err := mergeJSON(existing, []byte(f.Content))
		if err != nil {
			d.action = actionKeep
			d.warning = fmt.Sprintf("%s is not a JSON object, left untouched: %v", f.Path, err)
			return d, nil
		}
		if len(conflicts) > 0 {
			d.warning = fmt.Sprintf("%s already sets %s, kept existing values", f.Path, strings.Join(conflicts, ", "))
		}
		if changed {
			d.action = actionModify
			d.data = merged
		}

	default:
		return d, fmt.Errorf("unknown merge strategy %q for %s", f.Target.Strategy, f.Path)
	}
	return d, nil
}

// managedFiles lists planned files that exist, then earlier managed files
// that are still on disk. Earlier paths outside the layout roots are dropped.
func (i *Installer) managedFiles(dir string, decisions []decision, previous []string) []string {
	managed := []string{}
	for _, d := range decisions {
		if exists(filepath.Join(dir, filepath.FromSlash(d.file.Path))) {
			managed = append(managed, d.file.Path)
		}
	}
	for _, rel := range previous {
		if err := i.layout.checkPath(rel); err != nil {
			log.Warn().Err(err).Msg("Dropping manifest path")
			continue
		}
		if !contains(managed, rel) && exists(filepath.Join(dir, filepath.FromSlash(rel))) {
			managed = append(managed, rel)
		}
	}
	return managed
}

// pruneDirs removes directories emptied by Uninstall, stopping at the root.
func (i *Installer) pruneDirs(dir, rel string) {
	for parent := path.Dir(rel); parent != "." && !contains(i.layout.Roots, parent); parent = path.Dir(parent) {
		if i.layout.checkPath(parent) != nil {
			return
		}
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(parent))); err != nil {
			return
		}
	}
}

func writeFile(dir, rel string, data []byte) error {
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), DirPermission); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, data, FilePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	log.Debug().Str("file", rel).Int("bytes", len(data)).Msg("Wrote overlay file")
	return nil
}

func appendSection(existing, section string) string {
	if existing == "" {
		return section
	}
	sep := "\n\n"
	if strings.HasSuffix(existing, "\n\n") {
		sep = ""
	} else if strings.HasSuffix(existing, "\n") {
		sep = "\n"
	}
	return existing + sep + section
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func estimateSize(bytes int) string {
	kb := (bytes + 1023) / 1024
	if kb < 1 {
		kb = 1
	}
	return fmt.Sprintf("~%dKB", kb)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

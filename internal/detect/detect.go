// Package detect finds which AI assistants are present for a project. Checks
// only read the filesystem, environment and PATH; failures mean "not found".
package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const DefaultVersionTimeout = 2 * time.Second

// Result is the detection outcome for one provider. It is never persisted.
type Result struct {
	Provider    string   `json:"provider"`
	DisplayName string   `json:"displayName"`
	Detected    bool     `json:"detected"`
	ConfigPath  string   `json:"configPath,omitempty"`
	Version     string   `json:"version,omitempty"`
	Signals     []string `json:"signals,omitempty"`
}

// Detector checks for providers. The function fields default to the real
// environment and can be replaced in tests.
type Detector struct {
	reg *registry.Registry

	HomeDir        func() (string, error)
	Getenv         func(string) string
	LookPath       func(string) (string, error)
	RunVersion     func(ctx context.Context, binary string) (string, error)
	VersionTimeout time.Duration
}

// New creates a detector using the process environment.
func New(reg *registry.Registry) *Detector {
	return &Detector{
		reg:            reg,
		HomeDir:        os.UserHomeDir,
		Getenv:         os.Getenv,
		LookPath:       exec.LookPath,
		RunVersion:     runVersion,
		VersionTimeout: DefaultVersionTimeout,
	}
}

func runVersion(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	return string(out), err
}

// DetectAll checks every registry provider concurrently and returns results in
// registry order.
func (d *Detector) DetectAll(ctx context.Context, projectDir string) []Result {
	providers := d.reg.Providers()
	results := make([]Result, len(providers))
	pkgs := readPackageDeps(projectDir)

	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range providers {
		eg.Go(func() error {
			results[i] = d.detect(egCtx, projectDir, p, pkgs)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// Detect checks a single provider by id or alias.
func (d *Detector) Detect(ctx context.Context, projectDir, provider string) (Result, error) {
	p, err := d.reg.Provider(provider)
	if err != nil {
		return Result{}, err
	}
	return d.detect(ctx, projectDir, p, readPackageDeps(projectDir)), nil
}

func (d *Detector) detect(ctx context.Context, projectDir string, p registry.Provider, pkgs map[string]bool) Result {
	r := Result{Provider: p.ID, DisplayName: p.DisplayName}
	fire := func(signal string) {
		r.Signals = append(r.Signals, signal)
	}

	// Project markers
	for _, m := range p.Detect.ProjectMarkers {
		path := filepath.Join(projectDir, m)
		if exists(path) {
			fire("project:" + m)
			if r.ConfigPath == "" {
				r.ConfigPath = path
			}
		}
	}

	// Home markers
	if home, err := d.HomeDir(); err == nil {
		for _, m := range p.Detect.HomeMarkers {
			path := filepath.Join(home, m)
			if exists(path) {
				fire("home:" + m)
				if r.ConfigPath == "" {
					r.ConfigPath = path
				}
			}
		}
	}

	// Installed packages
	for _, pkg := range p.Detect.Packages {
		if exists(filepath.Join(projectDir, "node_modules", pkg)) || hasDep(pkgs, pkg) {
			fire("package:" + pkg)
		}
	}

	// Environment variables
	for _, name := range p.Detect.EnvVars {
		if d.Getenv(name) != "" {
			fire("env:" + name)
		}
	}

	// Binaries on PATH
	found := map[string]string{}
	for _, bin := range p.Detect.Binaries {
		if path, err := d.LookPath(bin); err == nil {
			fire("binary:" + bin)
			found[bin] = path
		}
	}

	r.Detected = len(r.Signals) > 0
	if r.Detected && p.Detect.VersionBinary != "" {
		if path, ok := found[p.Detect.VersionBinary]; ok {
			r.Version = d.version(ctx, path)
		}
	}

	log.Debug().
		Str("provider", p.ID).
		Bool("detected", r.Detected).
		Strs("signals", r.Signals).
		Msg("Detection finished")
	return r
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:[-+][0-9A-Za-z.-]+)?`)

func (d *Detector) version(ctx context.Context, binary string) string {
	timeout := d.VersionTimeout
	if timeout <= 0 {
		timeout = DefaultVersionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := d.RunVersion(ctx, binary)
	if err != nil {
		log.Debug().Err(err).Str("binary", binary).Msg("Version check failed")
		return ""
	}

	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	if v := versionPattern.FindString(line); v != "" {
		return v
	}
	return strings.TrimSpace(line)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readPackageDeps collects dependency names from the project's package.json.
func readPackageDeps(projectDir string) map[string]bool {
	f, err := os.Open(filepath.Join(projectDir, "package.json"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&manifest); err != nil {
		log.Debug().Err(err).Msg("Ignoring unreadable package.json")
		return nil
	}

	deps := make(map[string]bool)
	for name := range manifest.Dependencies {
		deps[name] = true
	}
	for name := range manifest.DevDependencies {
		deps[name] = true
	}
	return deps
}

// hasDep matches an exact package or a scope prefix such as "@google".
func hasDep(deps map[string]bool, pkg string) bool {
	if deps[pkg] {
		return true
	}
	for name := range deps {
		if strings.HasPrefix(name, pkg+"/") {
			return true
		}
	}
	return false
}

// Detected filters results to the providers that were found.
func Detected(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Detected {
			out = append(out, r)
		}
	}
	return out
}

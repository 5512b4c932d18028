package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/auth"
	"github.com/arcanea-realm/arcanea/internal/config"
	"github.com/arcanea-realm/arcanea/internal/content"
	"github.com/arcanea-realm/arcanea/internal/detect"
	"github.com/arcanea-realm/arcanea/internal/keystore"
	"github.com/arcanea-realm/arcanea/internal/manifest"
	"github.com/arcanea-realm/arcanea/internal/overlay"
	"github.com/arcanea-realm/arcanea/internal/registry"
)

// newDetector builds the tool detector; tests swap it for a stubbed one.
var newDetector = detect.New

// app holds the collaborators a command needs, built from global flags and config.
type app struct {
	ui
	reg    *registry.Registry
	cfg    *config.Config
	dir    string
	file   *keystore.FileBackend
	keys   *keystore.Cascade
	auth   *auth.Registry
	detect *detect.Detector
	gen    *content.Generator
	store  *manifest.Store
	prompt *prompter
}

func newApp(c *cli.Command) (*app, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(c.String("dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	reg := registry.Default()

	path, err := cfg.KeystorePath()
	if err != nil {
		return nil, err
	}
	key, err := keystore.MachineKey()
	if err != nil {
		return nil, err
	}
	file, err := keystore.NewFileBackend(path, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	var ropts []auth.RegistryOption
	if region := cfg.AWSRegion(); region != "" {
		ropts = append(ropts, auth.WithAWSRegion(region))
	}

	detector := newDetector(reg)
	detector.VersionTimeout = cfg.VersionTimeout()

	log.Debug().Str("dir", dir).Str("config", cfg.Path()).Str("keystore", path).Msg("Initialized")

	return &app{
		ui:     ui{out: commandWriter(c)},
		reg:    reg,
		cfg:    cfg,
		dir:    dir,
		file:   file,
		keys:   keystore.NewCascade(keystore.NewEnvBackend(reg, dir), file),
		auth:   auth.NewRegistry(reg, auth.Options{Timeout: cfg.AuthTimeout()}, ropts...),
		detect: detector,
		gen:    content.NewGenerator(reg, content.WithProjectName(filepath.Base(dir))),
		store:  manifest.NewStore(),
		prompt: newPrompter(commandReader(c), commandWriter(c)),
	}, nil
}

func (a *app) installer(provider string, opts ...overlay.InstallerOption) (*overlay.Installer, error) {
	return overlay.ForProvider(a.reg, provider, a.gen, a.store, opts...)
}

// level resolves a level flag, falling back to the configured default.
func (a *app) level(name string) (registry.Level, error) {
	if name == "" {
		name = a.cfg.DefaultLevel()
	}
	return registry.ParseLevel(name)
}

// credential returns the stored or exported credential for a provider.
func (a *app) credential(ctx context.Context, provider string) (value, source string, err error) {
	return a.keys.LoadWithSource(ctx, provider)
}

func commandWriter(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func commandReader(c *cli.Command) io.Reader {
	if r := c.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

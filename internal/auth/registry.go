package auth

import (
	"context"
	"os/exec"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

// LocalAdapter serves tools that run locally and need no API key.
type LocalAdapter struct {
	base
}

// NewLocalAdapter creates an adapter that always validates.
func NewLocalAdapter(p registry.Provider, opts Options) *LocalAdapter {
	return &LocalAdapter{base: base{provider: p, opts: opts.withDefaults()}}
}

// Validate implements Adapter.
func (a *LocalAdapter) Validate(ctx context.Context, credential string) Session {
	s := succeed(a.session(), []string{"local"}, []string{"chat", "plugins", "hooks"})
	s.Source = "local"
	return s
}

// DetectFromEnv implements Adapter.
func (a *LocalAdapter) DetectFromEnv(ctx context.Context) *Session {
	s := a.Validate(ctx, "")
	return &s
}

// Registry resolves provider ids and aliases to adapters.
type Registry struct {
	reg      *registry.Registry
	adapters map[string]Adapter
}

// RegistryOption customises adapter construction.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	awsRegion string
	run       CommandRunner
}

// WithAWSRegion sets the region used for STS validation.
func WithAWSRegion(region string) RegistryOption {
	return func(c *registryConfig) { c.awsRegion = region }
}

// WithCommandRunner replaces the runner used for the gh CLI fallback.
func WithCommandRunner(run CommandRunner) RegistryOption {
	return func(c *registryConfig) { c.run = run }
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewRegistry builds one adapter per registry provider.
func NewRegistry(reg *registry.Registry, opts Options, ropts ...RegistryOption) *Registry {
	cfg := registryConfig{run: execRunner}
	for _, o := range ropts {
		o(&cfg)
	}

	r := &Registry{reg: reg, adapters: make(map[string]Adapter)}
	for _, p := range reg.Providers() {
		r.adapters[p.ID] = newAdapter(p, opts, cfg)
	}
	return r
}

// adapterFactories maps the registry auth method to its adapter.
var adapterFactories = map[string]func(p registry.Provider, opts Options, cfg registryConfig) Adapter{
	"anthropic": func(p registry.Provider, opts Options, _ registryConfig) Adapter { return NewClaudeAdapter(p, opts) },
	"openai":    func(p registry.Provider, opts Options, _ registryConfig) Adapter { return NewOpenAIAdapter(p, opts) },
	"gemini":    func(p registry.Provider, opts Options, _ registryConfig) Adapter { return NewGeminiAdapter(p, opts) },
	"github": func(p registry.Provider, opts Options, cfg registryConfig) Adapter {
		return NewCopilotAdapter(p, opts, cfg.run)
	},
	"aws": func(p registry.Provider, opts Options, cfg registryConfig) Adapter {
		return NewAmazonQAdapter(p, opts, cfg.awsRegion)
	},
}

func newAdapter(p registry.Provider, opts Options, cfg registryConfig) Adapter {
	if factory, ok := adapterFactories[p.Auth]; ok {
		return factory(p, opts, cfg)
	}
	return NewLocalAdapter(p, opts)
}

// Adapter returns the adapter for a provider id or alias.
func (r *Registry) Adapter(name string) (Adapter, error) {
	p, err := r.reg.Provider(name)
	if err != nil {
		return nil, err
	}
	return r.adapters[p.ID], nil
}

// Adapters returns every adapter in registry order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, p := range r.reg.Providers() {
		out = append(out, r.adapters[p.ID])
	}
	return out
}

// AdapterByEnvVar finds the adapter that reads the named environment variable.
func (r *Registry) AdapterByEnvVar(name string) (Adapter, bool) {
	for _, a := range r.Adapters() {
		for _, v := range a.EnvVarNames() {
			if v == name {
				return a, true
			}
		}
	}
	return nil, false
}

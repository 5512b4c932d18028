package keystore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

// EnvBackend resolves credentials from provider environment variables. Values in
// the process environment win over a project .env file.
type EnvBackend struct {
	reg    *registry.Registry
	getenv func(string) string
	dotenv map[string]string
}

// NewEnvBackend creates an env backend. When projectDir holds a .env file its
// values are used for variables missing from the process environment.
func NewEnvBackend(reg *registry.Registry, projectDir string) *EnvBackend {
	e := &EnvBackend{reg: reg, getenv: os.Getenv}
	if projectDir == "" {
		return e
	}

	path := filepath.Join(projectDir, ".env")
	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", path).Msg("Ignoring unreadable .env file")
		}
		return e
	}
	e.dotenv = values
	log.Debug().Str("path", path).Int("vars", len(values)).Msg("Loaded .env file")
	return e
}

func (e *EnvBackend) lookup(name string) string {
	if v := e.getenv(name); v != "" {
		return v
	}
	return e.dotenv[name]
}

// Resolve returns the credential and the variable name(s) it came from.
func (e *EnvBackend) Resolve(provider string) (value, source string, err error) {
	p, err := e.reg.Provider(provider)
	if err != nil {
		return "", "", err
	}
	value, source = p.CredentialFromEnv(e.lookup)
	if value == "" {
		return "", "", ErrNotFound
	}
	return value, source, nil
}

// Load implements Keystore.
func (e *EnvBackend) Load(ctx context.Context, provider string) (string, error) {
	value, _, err := e.Resolve(provider)
	return value, err
}

// Save implements Keystore. The environment cannot be written.
func (e *EnvBackend) Save(ctx context.Context, provider, credential string) error {
	return ErrReadOnly
}

// Delete implements Keystore. The environment cannot be written.
func (e *EnvBackend) Delete(ctx context.Context, provider string) error {
	return ErrReadOnly
}

// List returns providers with a credential in the environment, in registry order.
func (e *EnvBackend) List(ctx context.Context) ([]string, error) {
	var ids []string
	for _, p := range e.reg.Providers() {
		if v, _ := p.CredentialFromEnv(e.lookup); v != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

package keystore

import (
	"context"
	"errors"
)

// Cascade reads from the environment first and falls back to a persistent
// store. Writes always go to the persistent store.
type Cascade struct {
	env  *EnvBackend
	file Keystore
}

// NewCascade creates a cascading keystore.
func NewCascade(env *EnvBackend, file Keystore) *Cascade {
	return &Cascade{env: env, file: file}
}

// LoadWithSource returns the credential and where it was found: the
// environment variable name or SourceKeystore.
func (c *Cascade) LoadWithSource(ctx context.Context, provider string) (string, string, error) {
	value, source, err := c.env.Resolve(provider)
	if err == nil {
		return value, source, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", "", err
	}

	value, err = c.file.Load(ctx, provider)
	if err != nil {
		return "", "", err
	}
	return value, SourceKeystore, nil
}

// Load implements Keystore.
func (c *Cascade) Load(ctx context.Context, provider string) (string, error) {
	value, _, err := c.LoadWithSource(ctx, provider)
	return value, err
}

// Save implements Keystore.
func (c *Cascade) Save(ctx context.Context, provider, credential string) error {
	return c.file.Save(ctx, provider, credential)
}

// Delete implements Keystore.
func (c *Cascade) Delete(ctx context.Context, provider string) error {
	return c.file.Delete(ctx, provider)
}

// List implements Keystore.
func (c *Cascade) List(ctx context.Context) ([]string, error) {
	return c.file.List(ctx)
}

// Package keystore stores provider credentials. Credentials are read from the
// environment or from an encrypted file under the user's home directory.
package keystore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no credential is stored for the provider.
	ErrNotFound = errors.New("credential not found")

	// ErrReadOnly is returned by backends that cannot persist credentials.
	ErrReadOnly = errors.New("cannot save to environment variables, set them in your shell profile")

	// ErrIntegrity means a stored credential exists but failed authentication.
	ErrIntegrity = errors.New("credential failed integrity check")
)

// Keystore persists one credential per provider id.
type Keystore interface {
	Save(ctx context.Context, provider, credential string) error
	Load(ctx context.Context, provider string) (string, error)
	Delete(ctx context.Context, provider string) error
	List(ctx context.Context) ([]string, error)
}

// SourceKeystore is the label reported for credentials found in the file backend.
const SourceKeystore = "keystore"

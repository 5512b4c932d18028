package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CredentialsDir  = ".arcanea"
	CredentialsFile = "credentials.json"

	// File permissions
	DirPermission  = 0700 // Directory permission (rwx------)
	FilePermission = 0600 // File permission (rw-------)

	ivSize  = 16
	tagSize = 16
)

// Record is one stored credential.
type Record struct {
	Provider   string    `json:"provider"`
	Credential string    `json:"credential"`
	SavedAt    time.Time `json:"savedAt"`
}

// FileBackend keeps AES-256-GCM encrypted records in a JSON file.
type FileBackend struct {
	path string
	key  []byte
	now  func() time.Time
	mu   sync.Mutex
}

// DefaultPath returns ~/.arcanea/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, CredentialsDir, CredentialsFile), nil
}

// DeriveKey builds the machine-bound encryption key for a home directory and user.
func DeriveKey(home, user string) []byte {
	sum := sha256.Sum256([]byte("arcanea-" + home + "-" + user))
	return sum[:]
}

// MachineKey derives the key for the current user on this machine.
func MachineKey() ([]byte, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return DeriveKey(home, currentUser()), nil
}

func currentUser() string {
	for _, name := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return "default"
}

// NewFileBackend creates a file backend at path using a 32-byte key.
func NewFileBackend(path string, key []byte) (*FileBackend, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length %d, want 32", len(key))
	}
	return &FileBackend{path: path, key: key, now: time.Now}, nil
}

// Path returns the credential file location.
func (f *FileBackend) Path() string {
	return f.path
}

// Save encrypts and stores a credential, replacing any previous one.
func (f *FileBackend) Save(ctx context.Context, provider, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sealed, err := seal(f.key, credential)
	if err != nil {
		return err
	}

	records := f.read()
	records[provider] = Record{Provider: provider, Credential: sealed, SavedAt: f.now().UTC()}
	if err := f.write(records); err != nil {
		return err
	}

	log.Debug().Str("provider", provider).Str("path", f.path).Msg("Saved credential")
	return nil
}

// Load decrypts the credential for provider.
func (f *FileBackend) Load(ctx context.Context, provider string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.read()[provider]
	if !ok {
		return "", ErrNotFound
	}

	plain, err := open(f.key, rec.Credential)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential for %s: %w", provider, err)
	}
	return plain, nil
}

// Delete removes the credential for provider. Deleting a missing entry is not an error.
func (f *FileBackend) Delete(ctx context.Context, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.read()
	if _, ok := records[provider]; !ok {
		return nil
	}
	delete(records, provider)
	if err := f.write(records); err != nil {
		return err
	}

	log.Debug().Str("provider", provider).Msg("Deleted credential")
	return nil
}

// List returns the providers with a stored record, sorted.
func (f *FileBackend) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.read()
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Records returns the stored records without decrypting them.
func (f *FileBackend) Records() map[string]Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// read loads the record map. A missing or unparseable file reads as empty.
func (f *FileBackend) read() map[string]Record {
	records := make(map[string]Record)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", f.path).Msg("Failed to read credential file")
		}
		return records
	}

	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("path", f.path).Msg("Credential file is corrupt, treating as empty")
		return make(map[string]Record)
	}
	return records
}

func (f *FileBackend) write(records map[string]Record) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, DirPermission); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write to a temp file in the same directory, then rename over the target
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(FilePermission); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set credential file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

// seal encrypts plaintext as "ivHex:tagHex:ciphertextHex".
func seal(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	out := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := out[:len(out)-tagSize], out[len(out)-tagSize:]
	return strings.Join([]string{hex.EncodeToString(iv), hex.EncodeToString(tag), hex.EncodeToString(ct)}, ":"), nil
}

// open reverses seal. Any malformed or tampered input is ErrIntegrity.
func open(key []byte, encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", ErrIntegrity
	}

	var raw [3][]byte
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			return "", ErrIntegrity
		}
		raw[i] = b
	}
	iv, tag, ct := raw[0], raw[1], raw[2]
	if len(iv) != ivSize || len(tag) != tagSize {
		return "", ErrIntegrity
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return gcm, nil
}

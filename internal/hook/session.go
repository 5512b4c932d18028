package hook

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	sessionDir = "arcanea-hook"
	// SessionTTL bounds how long a session's routing state is kept.
	SessionTTL = 24 * time.Hour
)

// SessionTracker remembers the Guardian last injected into each session so
// consecutive prompts for the same Guardian do not repeat the context.
// State is stored per session in the OS temp directory.
type SessionTracker struct {
	dir string
	now func() time.Time
}

// NewSessionTracker creates a tracker rooted at dir, or the OS temp directory
// when dir is empty.
func NewSessionTracker(dir string) *SessionTracker {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), sessionDir)
	}
	return &SessionTracker{dir: dir, now: time.Now}
}

// Last returns the Guardian last recorded for the session, or "".
func (st *SessionTracker) Last(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	data, err := os.ReadFile(st.markerPath(sessionID))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Seen reports whether personaID was the last Guardian injected into the session.
func (st *SessionTracker) Seen(sessionID, personaID string) bool {
	return sessionID != "" && st.Last(sessionID) == personaID
}

// Record stores personaID as the session's current Guardian.
func (st *SessionTracker) Record(sessionID, personaID string) {
	if sessionID == "" {
		return
	}
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		log.Debug().Err(err).Msg("Failed to create session directory")
		return
	}
	if err := os.WriteFile(st.markerPath(sessionID), []byte(personaID), 0644); err != nil {
		log.Debug().Err(err).Msg("Failed to write session marker")
	}
}

// Cleanup removes markers older than SessionTTL.
func (st *SessionTracker) Cleanup() {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return
	}

	cutoff := st.now().Add(-SessionTTL)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(st.dir, entry.Name()))
		}
	}
}

// session ids come from the assistant, so they are hashed before touching the filesystem
func (st *SessionTracker) markerPath(sessionID string) string {
	h := sha256.Sum256([]byte(sessionID))
	return filepath.Join(st.dir, fmt.Sprintf("%x.guardian", h[:12]))
}

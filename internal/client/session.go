package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session is the logged-in user kept between runs.
type Session struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Valid reports whether s has the shape of a real session.
func (s *Session) Valid() bool {
	return s != nil && s.ID > 0 && s.Username != ""
}

// SessionStore is a durable slot for one session.
type SessionStore interface {
	// Load returns the stored session, or nil when there is none. A malformed
	// blob is cleared and reported as no session.
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// DefaultSessionPath returns the session file under the user config dir.
func DefaultSessionPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "dailytasks", "session.json"), nil
}

// FileSession keeps the session as a JSON file.
type FileSession struct {
	path string
}

func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

func (f *FileSession) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || !s.Valid() {
		log.Printf("[client] discarding malformed session in %s", f.path)
		return nil, f.Clear()
	}
	return &s, nil
}

func (f *FileSession) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileSession) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemorySession keeps the session in memory.
type MemorySession struct {
	mu   sync.Mutex
	blob []byte
}

func (m *MemorySession) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.blob == nil {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(m.blob, &s); err != nil || !s.Valid() {
		m.blob = nil
		return nil, nil
	}
	return &s, nil
}

func (m *MemorySession) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	m.blob = data
	m.mu.Unlock()
	return nil
}

func (m *MemorySession) Clear() error {
	m.mu.Lock()
	m.blob = nil
	m.mu.Unlock()
	return nil
}

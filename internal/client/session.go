package client

import (
	"encoding/json" // Session file encoding
	"errors"        // Error inspection
	"io/fs"         // Missing file detection
	"os"            // File access
	"path/filepath" // Session directory
	"sync"          // Guards the current session

	"tournament_system/internal/domain" // User model
)

// Session is the signed-in user and their bearer token
type Session struct {
	User  *domain.User `json:"user"`  // Cached profile, nil when signed out
	Token string       `json:"token"` // Bearer token, empty when signed out
}

// Valid reports whether the session carries a token and a user
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil
}

// SessionStore holds the current session and persists it to a JSON file.
// An empty path keeps the session in memory only.
type SessionStore struct {
	mu      sync.RWMutex
	path    string
	current Session
}

// NewSessionStore creates a store backed by path
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load reads the session file. A missing file leaves the store signed out.
func (s *SessionStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.current = Session{}
		return nil
	}
	if err != nil {
		return err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return err
	}
	if !sess.Valid() {
		sess = Session{} // Half-written sessions are treated as signed out
	}
	s.current = sess
	return nil
}

// Save replaces the current session and writes it to disk
func (s *SessionStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
	return s.write()
}

// Clear signs out and removes the session file
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Current returns a copy of the current session
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.current
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

// Token returns the bearer token, empty when signed out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// write stores the session through a temp file and rename; caller holds mu
func (s *SessionStore) write() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

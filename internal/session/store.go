package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the session as a JSON document at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore that saves the session at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the session is stored in.
func (s *FileStore) Path() string { return s.path }

// Save writes the session file, replacing any previous one.
func (s *FileStore) Save(sess Session) error {
	if !sess.Valid() {
		return fmt.Errorf("session: refusing to save partial session")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshaling: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: replacing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the session file.
// Returns (session, true, nil) if a complete session is stored, and
// (zero, false, nil) if the file is missing, malformed, or partial.
func (s *FileStore) Load() (Session, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("session: reading %s: %w", s.path, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, nil
	}
	if !sess.Authenticated() {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Clear deletes the session file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: removing %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore keeps the session in memory. Useful in tests and for
// one-shot commands that should not touch disk.
type MemoryStore struct {
	mu    sync.Mutex
	sess  Session
	saved bool
	// Err, when set, is returned by every operation.
	Err error
}

// Save stores a copy of sess.
func (m *MemoryStore) Save(sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if !sess.Valid() {
		return fmt.Errorf("session: refusing to save partial session")
	}
	m.sess = clone(sess)
	m.saved = sess.Authenticated()
	return nil
}

// Load returns the stored session.
func (m *MemoryStore) Load() (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Session{}, false, m.Err
	}
	if !m.saved {
		return Session{}, false, nil
	}
	return clone(m.sess), true, nil
}

// Clear forgets the stored session.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sess = Session{}
	m.saved = false
	return nil
}

func clone(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

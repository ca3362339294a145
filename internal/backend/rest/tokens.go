package rest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"safeguard-go/internal/backend"
)

// TokenStore persists the signed-in session between runs.
type TokenStore interface {
	Load() (*backend.Session, error)
	Save(session *backend.Session) error
	Clear() error
}

// FileTokenStore keeps the session as JSON in a user-only file.
type FileTokenStore struct {
	Path string
}

func (s FileTokenStore) Load() (*backend.Session, error) {
	content, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session backend.Session
	if err := json.Unmarshal(content, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

func (s FileTokenStore) Save(session *backend.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	content, err := json.Marshal(session)
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryTokenStore forgets the session when the process exits.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session *backend.Session
}

func (s *MemoryTokenStore) Load() (*backend.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

func (s *MemoryTokenStore) Save(session *backend.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.session = &cp
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}

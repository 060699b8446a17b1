package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file readable by the owner only.
type FileTokenStore struct {
	Path string
}

// DefaultTokenPath returns ~/.guildkeeper/token.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".guildkeeper", "token"), nil
}

// Load returns the stored token, or "" when none was saved.
func (s FileTokenStore) Load() (string, error) {
	// #nosec G304: the path is chosen by the local user
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

func (s FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// memoryTokenStore is used when no persistent store is configured.
type memoryTokenStore struct {
	token string
}

func (s *memoryTokenStore) Load() (string, error) { return s.token, nil }
func (s *memoryTokenStore) Save(token string) error {
	s.token = token
	return nil
}
func (s *memoryTokenStore) Clear() error {
	s.token = ""
	return nil
}

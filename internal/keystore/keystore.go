// Package keystore keeps provider API keys in a user-only JSON file, with environment variables as a fallback.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get when neither the file nor the environment has a key.
var ErrNotFound = errors.New("keystore: key not found")

// Store is a key file on disk. It is safe for concurrent use within a process.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by path. The file is created on first Set.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns ~/.codepal/keys.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("keystore: home dir: %w", err)
	}
	return filepath.Join(home, ".codepal", "keys.json"), nil
}

// EnvVar returns the environment variable consulted for provider (ex: "openai" -> "OPENAI_API_KEY").
func EnvVar(provider string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored key for provider, then falls back to EnvVar(provider). It returns ErrNotFound if neither is set.
func (s *Store) Get(provider string) (string, error) {
	s.mu.Lock()
	keys, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if k := keys[provider]; k != "" {
		return k, nil
	}
	if k := strings.TrimSpace(os.Getenv(EnvVar(provider))); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: %s (set it with `codepal keys set %s` or $%s)", ErrNotFound, provider, provider, EnvVar(provider))
}

// Set stores key for provider.
func (s *Store) Set(provider, key string) error {
	provider = strings.TrimSpace(provider)
	key = strings.TrimSpace(key)
	if provider == "" || key == "" {
		return errors.New("keystore: provider and key must be non-empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.load()
	if err != nil {
		return err
	}
	keys[provider] = key
	return s.save(keys)
}

// Delete removes provider's key. Deleting a missing key is not an error.
func (s *Store) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := keys[provider]; !ok {
		return nil
	}
	delete(keys, provider)
	return s.save(keys)
}

// Providers returns the providers with stored keys, sorted.
func (s *Store) Providers() ([]string, error) {
	s.mu.Lock()
	keys, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for p := range keys {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", s.path, err)
	}
	keys := map[string]string{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("keystore: parse %s: %w", s.path, err)
	}
	return keys, nil
}

func (s *Store) save(keys map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("keystore: mkdir: %w", err)
	}
	b, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("keystore: write %s: %w", s.path, err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(s.path, 0o600)
}

// Mask returns key with all but its last four characters replaced by '*'.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

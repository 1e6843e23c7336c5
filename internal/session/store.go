// Package session persists the authenticated client's credential bundle
// between runs. Only the auth flows write it; everything else reads.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ahelp-app/ahelp-cli/internal/config"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

// Store holds the current Session. Get returns (nil, nil) when no
// session exists; Clear is idempotent.
type Store interface {
	Save(s *domain.Session) error
	Get() (*domain.Session, error)
	Clear() error
	AccessToken() string
	Role() domain.Role
	EmailVerified() bool
}

// FileStore keeps the session as a JSON file, the durable equivalent of
// the browser's localStorage entry.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns the session file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, config.ConfigDirName, config.SessionFileName), nil
}

// NewFileStore creates a store backed by path. An empty path selects
// DefaultPath.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// Save overwrites the persisted session unconditionally.
func (f *FileStore) Save(s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Get returns the persisted session, or (nil, nil) when the file is
// missing or unreadable. A corrupt file counts as no session.
func (f *FileStore) Get() (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, nil
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	return &s, nil
}

// Clear removes the persisted session. Removing an already absent
// session is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (f *FileStore) AccessToken() string {
	s, _ := f.Get()
	if s == nil {
		return ""
	}
	return s.Access
}

func (f *FileStore) Role() domain.Role {
	s, _ := f.Get()
	if s == nil {
		return ""
	}
	return s.Role
}

func (f *FileStore) EmailVerified() bool {
	s, _ := f.Get()
	if s == nil {
		return false
	}
	return s.EmailVerified
}

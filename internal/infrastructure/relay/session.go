package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
)

// FileSessionStorage implements session.Storage for the relay account.
// The session must already be authorized; the relay never drives an
// interactive login.
type FileSessionStorage struct {
	filePath string
}

// NewFileSessionStorage creates a file-based session storage under sessionDir
func NewFileSessionStorage(sessionDir string) (*FileSessionStorage, error) {
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &FileSessionStorage{
		filePath: filepath.Join(sessionDir, "relay.json"),
	}, nil
}

// LoadSession loads session data from file
func (s *FileSessionStorage) LoadSession(_ context.Context) ([]byte, error) {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil, session.ErrNotFound
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrNotFound
	}

	return data, nil
}

// StoreSession stores session data to file
func (s *FileSessionStorage) StoreSession(_ context.Context, data []byte) error {
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// SessionExists checks if a session file exists
func (s *FileSessionStorage) SessionExists() bool {
	_, err := os.Stat(s.filePath)
	return err == nil
}

// GetFilePath returns the path to the session file
func (s *FileSessionStorage) GetFilePath() string {
	return s.filePath
}

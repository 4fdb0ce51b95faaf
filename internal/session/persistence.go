package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/navid-fn/coinview/internal/models"

	"github.com/sirupsen/logrus"
)

// Persister stores a session across restarts.
type Persister interface {
	Save(session *models.Session) error
	Load() (*models.Session, error)
	Clear() error
}

type persistedSession struct {
	Session *models.Session `json:"session"`
	SavedAt time.Time       `json:"saved_at"`
}

// FilePersister keeps the session as JSON in a single file readable only by the owner.
type FilePersister struct {
	path   string
	mu     sync.Mutex
	logger *logrus.Entry
}

func NewFilePersister(path string, logger *logrus.Logger) (*FilePersister, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &FilePersister{
		path:   path,
		logger: logger.WithField("component", "session"),
	}, nil
}

// Save writes the session through a temp file and rename so a crash never leaves a torn file.
func (p *FilePersister) Save(session *models.Session) error {
	if session == nil {
		return p.Clear()
	}

	data, err := json.Marshal(persistedSession{Session: session, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	p.logger.Debug("Session saved")
	return nil
}

// Load returns the saved session, or nil when none is saved.
func (p *FilePersister) Load() (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var saved persistedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return saved.Session, nil
}

func (p *FilePersister) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

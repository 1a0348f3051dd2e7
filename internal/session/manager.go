package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/project"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager tracks open editing sessions. Sessions are keyed by their
// own id, not the project id, so the same project can be reopened
// after a close without colliding.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	projects    *project.Repository
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewManager(projects *project.Repository, b Broadcaster, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		projects:    projects,
		broadcaster: b,
		logger:      logging.WithComponent(logger, "session"),
	}
}

// Open hydrates the project's saved items into a fresh session.
func (m *Manager) Open(projectID string) (*Session, error) {
	if _, err := m.projects.Get(projectID); err != nil {
		return nil, err
	}
	items, err := m.projects.LoadItems(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate project: %w", err)
	}

	id := uuid.NewString()
	s := newSession(id, projectID, items, m.broadcaster, logging.WithSessionID(m.logger, id))

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", id, "project_id", projectID, "items", len(items))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close persists the session's items back to the project and tears the
// session down. The save happens before teardown so a failed write
// keeps the session alive for a retry.
func (m *Manager) Close(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	if err := m.projects.SaveItems(s.ProjectID, s.Items()); err != nil {
		return fmt.Errorf("failed to save project on close: %w", err)
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	s.close()
	m.logger.Info("session closed", "session_id", id, "project_id", s.ProjectID)
	return nil
}

// Save persists the session's items without closing it.
func (m *Manager) Save(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return m.projects.SaveItems(s.ProjectID, s.Items())
}

// SessionsForProject returns the ids of open sessions editing the
// given project.
func (m *Manager) SessionsForProject(projectID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, s := range m.sessions {
		if s.ProjectID == projectID {
			ids = append(ids, id)
		}
	}
	return ids
}

// List returns the ids of all open sessions.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

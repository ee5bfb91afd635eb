package session

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"knouxart/internal/storage"
)

// ProjectStore is the persistence a session manager needs.
type ProjectStore interface {
	GetProject(id string) (*storage.Project, error)
	SaveProjectData(id string, data []byte) error
}

// Manager keeps a bounded set of live sessions, at most one per project.
// When the bound is reached the least recently used session is saved to its
// project and closed.
//
// mu serializes opening, closing and saving so a project's stored data is
// only ever written by its one live session, or by Replace.
type Manager struct {
	mu       sync.Mutex
	store    ProjectStore
	sessions *lru.Cache[string, *Session]
	fps      int
	closed   bool
	logger   zerolog.Logger
}

func NewManager(store ProjectStore, maxSessions, fps int, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{
		store:  store,
		fps:    fps,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
	cache, err := lru.NewWithEvict[string, *Session](maxSessions, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	m.sessions = cache
	return m, nil
}

// onEvict runs from Add, Remove and Purge, always with m.mu held. Sessions
// already closed by Replace are dropped without saving.
func (m *Manager) onEvict(id string, s *Session) {
	if !s.Closed() {
		if err := m.save(s); err != nil {
			m.logger.Error().Err(err).Str("session", id).Msg("failed to save evicted session")
		}
		s.Close()
	}
	m.logger.Debug().Str("session", id).Str("project", s.ProjectID).Msg("session closed")
}

// Open returns the live session of the project, creating one from the
// project's saved data when none exists. The project is read again under the
// manager lock so a concurrent Replace is never undone by a stale copy.
func (m *Manager) Open(p *storage.Project, ownerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if s := m.find(p.ID); s != nil {
		m.sessions.Get(s.ID)
		return s, nil
	}

	current, err := m.store.GetProject(p.ID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, p.ID)
	}

	s, err := newSession(current, ownerID, m.fps, m.logger)
	if err != nil {
		return nil, err
	}
	m.sessions.Add(s.ID, s)

	m.logger.Info().
		Str("session", s.ID).
		Str("project", current.ID).
		Str("type", string(current.Type)).
		Msg("session opened")

	return s, nil
}

func (m *Manager) find(projectID string) *Session {
	for _, s := range m.sessions.Values() {
		if s.ProjectID == projectID {
			return s
		}
	}
	return nil
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Save writes the session state into its project's data payload.
func (m *Manager) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(s)
}

func (m *Manager) save(s *Session) error {
	data, err := s.Data()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.SaveProjectData(s.ProjectID, data); err != nil {
		return fmt.Errorf("save project data: %w", err)
	}
	return nil
}

// Close saves and closes one session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sessions.Remove(id) {
		return ErrNotFound
	}
	return nil
}

// Replace closes the project's live session without saving it and then runs
// write, before any new session of the project can open. Callers use it when
// the stored project changes underneath the editor: deletion or a new data
// payload.
func (m *Manager) Replace(projectID string, write func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.find(projectID); s != nil {
		s.Close()
		m.sessions.Remove(s.ID)
		m.logger.Info().Str("session", s.ID).Str("project", projectID).Msg("session discarded")
	}
	return write()
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Shutdown saves and closes every live session. Later opens fail with
// ErrClosed.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	n := m.sessions.Len()
	m.sessions.Purge()
	if n > 0 {
		m.logger.Info().Int("sessions", n).Msg("sessions saved")
	}
}

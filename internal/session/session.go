package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"knouxart/internal/photo"
	"knouxart/internal/storage"
	"knouxart/internal/timeline"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrWrongKind = errors.New("operation does not match session type")
	ErrClosed    = errors.New("session closed")
)

// SubscriberBuffer is how many events a stream may fall behind before new
// events are dropped for it.
const SubscriberBuffer = 64

// Event is what stream subscribers receive for every engine or editor
// notification.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Subscriber is one stream listening to a session.
type Subscriber struct {
	ch      chan Event
	dropped int
}

func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Session is a live editing session for one project. Video projects get a
// timeline engine and photo projects a photo editor. Neither is safe for
// concurrent use, so every access goes through the session mutex, including
// the playback frames fired by the timer scheduler.
type Session struct {
	ID        string
	ProjectID string
	OwnerID   string
	Kind      storage.ProjectType
	CreatedAt time.Time

	mu     sync.Mutex
	engine *timeline.Engine
	editor *photo.Editor
	closed bool

	subMu sync.Mutex
	subs  map[*Subscriber]struct{}

	logger zerolog.Logger
}

func newSession(p *storage.Project, ownerID string, fps int, logger zerolog.Logger) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		OwnerID:   ownerID,
		Kind:      p.Type,
		CreatedAt: time.Now().UTC(),
		subs:      make(map[*Subscriber]struct{}),
	}
	s.logger = logger.With().Str("session", s.ID).Str("project", p.ID).Logger()

	switch p.Type {
	case storage.ProjectVideo:
		s.engine = timeline.NewEngine(
			timeline.WithFrameRate(fps),
			timeline.WithScheduler(timeline.NewTimerScheduler(fps, &s.mu)),
			timeline.WithLogger(s.logger),
		)
		for _, ev := range timeline.Events {
			name := string(ev)
			s.engine.On(ev, func(data any) { s.publish(Event{Type: name, Data: data}) })
		}
	case storage.ProjectPhoto:
		s.editor = photo.NewEditor(photo.WithLogger(s.logger))
		for _, ev := range photo.Events {
			name := string(ev)
			s.editor.On(ev, func(data any) { s.publish(Event{Type: name, Data: data}) })
		}
	default:
		return nil, fmt.Errorf("unknown project type %q", p.Type)
	}

	if err := s.load(p.Data); err != nil {
		return nil, fmt.Errorf("load project %s: %w", p.ID, err)
	}
	return s, nil
}

// load starts from the default state so fields missing from older payloads
// keep their defaults.
func (s *Session) load(data json.RawMessage) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		st := s.engine.State()
		if err := json.Unmarshal(data, &st); err != nil {
			return err
		}
		s.engine.Load(st)
		return nil
	}

	saved := s.editor.Saved()
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}
	s.editor.Restore(saved)
	return nil
}

// Timeline runs fn with exclusive access to the video engine.
func (s *Session) Timeline(fn func(e *timeline.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.engine == nil {
		return ErrWrongKind
	}
	return fn(s.engine)
}

// Photo runs fn with exclusive access to the photo editor.
func (s *Session) Photo(fn func(e *photo.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.editor == nil {
		return ErrWrongKind
	}
	return fn(s.editor)
}

// Snapshot returns the current timeline.State or photo.State.
func (s *Session) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return s.engine.State()
	}
	return s.editor.State()
}

// Data serializes the persisted form of the session for the project's data
// column. Playback state is not kept.
func (s *Session) Data() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.engine != nil {
		st := s.engine.State()
		st.IsPlaying = false
		return json.Marshal(st)
	}
	return json.Marshal(s.editor.Saved())
}

// Subscribe registers a stream. The returned function unsubscribes it and
// closes its channel.
func (s *Session) Subscribe() (*Subscriber, func()) {
	sub := &Subscriber{ch: make(chan Event, SubscriberBuffer)}

	s.subMu.Lock()
	if s.subs == nil {
		s.subMu.Unlock()
		close(sub.ch)
		return sub, func() {}
	}
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subs[sub]; ok {
				delete(s.subs, sub)
				close(sub.ch)
			}
		})
	}
}

func (s *Session) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// publish never blocks: a subscriber with a full buffer misses the event.
func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
			if sub.dropped == 1 || sub.dropped%100 == 0 {
				s.logger.Debug().Int("dropped", sub.dropped).Msg("subscriber too slow, dropping events")
			}
		}
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops playback, releases the engine and closes every subscriber.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		if s.engine != nil {
			s.engine.Dispose()
		}
		if s.editor != nil {
			s.editor.Dispose()
		}
	}
	s.mu.Unlock()

	s.subMu.Lock()
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
	s.subMu.Unlock()
}

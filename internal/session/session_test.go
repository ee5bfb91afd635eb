package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knouxart/internal/photo"
	"knouxart/internal/storage"
	"knouxart/internal/timeline"
)

type memProjects struct {
	mu       sync.Mutex
	projects map[string]*storage.Project
	saved    map[string][]byte
}

func newMemProjects() *memProjects {
	return &memProjects{
		projects: make(map[string]*storage.Project),
		saved:    make(map[string][]byte),
	}
}

func (m *memProjects) put(p *storage.Project) *storage.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return p
}

func (m *memProjects) GetProject(id string) (*storage.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id], nil
}

func (m *memProjects) SaveProjectData(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return storage.ErrProjectNotFound
	}
	cp := *p
	cp.Data = data
	m.projects[id] = &cp
	m.saved[id] = data
	return nil
}

func (m *memProjects) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
}

func (m *memProjects) get(id string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[id]
}

func newTestManager(t *testing.T, max, fps int) (*Manager, *memProjects) {
	t.Helper()
	store := newMemProjects()
	m, err := NewManager(store, max, fps, zerolog.Nop())
	require.NoError(t, err)
	return m, store
}

// openProject stores p, as the API does before opening, and opens it.
func openProject(m *Manager, p *storage.Project) (*Session, error) {
	m.store.(*memProjects).put(p)
	return m.Open(p, "u1")
}

func videoProject(id string, data string) *storage.Project {
	return &storage.Project{ID: id, UserID: "u1", Type: storage.ProjectVideo, Data: json.RawMessage(data)}
}

func addVideo(t *testing.T, s *Session, length float64) {
	t.Helper()
	require.NoError(t, s.Timeline(func(e *timeline.Engine) error {
		e.AddClip(timeline.NewVideoClip("c1", "clip", "/a.mp4", length))
		return nil
	}))
}

func TestOpenVideoSession(t *testing.T) {
	m, store := newTestManager(t, 4, 30)

	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)
	assert.Equal(t, storage.ProjectVideo, s.Kind)
	assert.Equal(t, "u1", s.OwnerID)
	assert.NotEmpty(t, s.ID)

	addVideo(t, s, 10)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Save(s))
	var st timeline.State
	require.NoError(t, json.Unmarshal(store.get("p1"), &st))
	assert.Equal(t, 10.0, st.Duration)
	assert.Equal(t, 1, st.ClipCount())
}

func TestOpenLoadsProjectData(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	data := `{"tracks":[{"id":"track-0","index":0,"type":"video","clips":[
		{"id":"c1","type":"video","startTime":0,"duration":8,"trimmedDuration":8,"track":0}]}]}`

	s, err := openProject(m, videoProject("p1", data))
	require.NoError(t, err)

	st := s.Snapshot().(timeline.State)
	assert.Equal(t, 8.0, st.Duration)
	assert.Equal(t, 1.0, st.Volume, "missing fields keep defaults")
	assert.Equal(t, 1.0, st.PlaybackRate)
}

func TestOpenRejectsBadData(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	_, err := openProject(m, videoProject("p1", `{"tracks":"nope"}`))
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestOpenReusesProjectSession(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	p := videoProject("p1", "")

	a, err := openProject(m, p)
	require.NoError(t, err)
	b, err := openProject(m, p)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
}

func TestPhotoSession(t *testing.T) {
	m, store := newTestManager(t, 4, 30)
	p := &storage.Project{ID: "p2", Type: storage.ProjectPhoto}

	s, err := openProject(m, p)
	require.NoError(t, err)

	err = s.Timeline(func(e *timeline.Engine) error { return nil })
	assert.ErrorIs(t, err, ErrWrongKind)

	require.NoError(t, s.Photo(func(e *photo.Editor) error {
		return e.ApplyFilter(photo.FilterSepia)
	}))
	require.NoError(t, m.Save(s))

	var saved photo.Saved
	require.NoError(t, json.Unmarshal(store.get("p2"), &saved))
	assert.Equal(t, photo.FilterSepia, saved.ActiveFilter)

	// Reopening from the saved payload restores the filter.
	require.NoError(t, m.Close(s.ID))
	p.Data = store.get("p2")
	reopened, err := openProject(m, p)
	require.NoError(t, err)
	assert.Equal(t, photo.FilterSepia, reopened.Snapshot().(photo.State).ActiveFilter)
}

func TestUnknownProjectType(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	_, err := openProject(m, &storage.Project{ID: "p", Type: "audio"})
	assert.Error(t, err)
}

func TestSubscribersReceiveEvents(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)

	sub, unsubscribe := s.Subscribe()
	assert.Equal(t, 1, s.Subscribers())

	addVideo(t, s, 10)

	var types []string
	for len(sub.Events()) > 0 {
		types = append(types, (<-sub.Events()).Type)
	}
	assert.Contains(t, types, "clipAdded")
	assert.Contains(t, types, "stateChange")

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, s.Subscribers())
	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)

	sub, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < SubscriberBuffer*2; i++ {
			s.Timeline(func(e *timeline.Engine) error {
				e.SetVolume(0.5)
				return nil
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine blocked on a full subscriber")
	}
	assert.Len(t, sub.Events(), SubscriberBuffer)
}

func TestEvictionSavesAndCloses(t *testing.T) {
	m, store := newTestManager(t, 1, 30)

	first, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)
	addVideo(t, first, 6)
	sub, _ := first.Subscribe()

	_, err = openProject(m, videoProject("p2", ""))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	_, err = m.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NotEmpty(t, store.get("p1"))
	err = first.Timeline(func(e *timeline.Engine) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)

	for range sub.Events() {
	}
}

func TestCloseAndShutdown(t *testing.T) {
	m, store := newTestManager(t, 4, 30)
	assert.ErrorIs(t, m.Close("missing"), ErrNotFound)

	for _, id := range []string{"p1", "p2"} {
		_, err := openProject(m, videoProject(id, ""))
		require.NoError(t, err)
	}

	m.Shutdown()
	assert.Equal(t, 0, m.Len())
	assert.NotEmpty(t, store.get("p1"))
	assert.NotEmpty(t, store.get("p2"))
}

func TestPlaybackRunsOnTimers(t *testing.T) {
	m, _ := newTestManager(t, 4, 200)
	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)
	addVideo(t, s, 0.1)

	sub, unsubscribe := s.Subscribe()
	defer unsubscribe()

	require.NoError(t, s.Timeline(func(e *timeline.Engine) error {
		e.Play()
		return nil
	}))

	require.Eventually(t, func() bool {
		return !s.Snapshot().(timeline.State).IsPlaying
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0.0, s.Snapshot().(timeline.State).CurrentTime)

	var sawPause bool
	for len(sub.Events()) > 0 {
		if (<-sub.Events()).Type == "pause" {
			sawPause = true
		}
	}
	assert.True(t, sawPause)
}

func TestDataOmitsPlayback(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)
	addVideo(t, s, 100)

	require.NoError(t, s.Timeline(func(e *timeline.Engine) error {
		e.Play()
		return nil
	}))
	data, err := s.Data()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isPlaying":false`)

	s.Close()
	s.Close()
}

func TestConcurrentOpenSharesOneSession(t *testing.T) {
	m, _ := newTestManager(t, 8, 30)
	p := videoProject("p1", "")

	const tabs = 16
	ids := make([]string, tabs)
	var wg sync.WaitGroup
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := openProject(m, p)
			if assert.NoError(t, err) {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, m.Len())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestReplaceDiscardsWithoutSaving(t *testing.T) {
	m, store := newTestManager(t, 4, 30)
	s, err := openProject(m, videoProject("p1", ""))
	require.NoError(t, err)
	addVideo(t, s, 10)
	sub, _ := s.Subscribe()

	wrote := false
	require.NoError(t, m.Replace("p1", func() error {
		wrote = true
		return store.SaveProjectData("p1", []byte(`{"zoom":4}`))
	}))

	assert.True(t, wrote)
	assert.Equal(t, 0, m.Len())
	assert.JSONEq(t, `{"zoom":4}`, string(store.get("p1")))

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Save(s), ErrClosed)
	for range sub.Events() {
	}

	// The next open starts from the replaced payload.
	reopened, err := openProject(m, videoProject("p1", `{"zoom":4}`))
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, reopened.ID)
	assert.Equal(t, 4.0, reopened.Snapshot().(timeline.State).Zoom)

	m.Shutdown()
	assert.Contains(t, string(store.get("p1")), `"zoom":4`)
}

func TestReplaceWithoutLiveSession(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	called := false
	require.NoError(t, m.Replace("p1", func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestOpenDeletedProject(t *testing.T) {
	m, store := newTestManager(t, 4, 30)
	p := store.put(videoProject("p1", ""))
	store.remove("p1")

	_, err := m.Open(p, "u1")
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestOpenReadsCurrentData(t *testing.T) {
	m, store := newTestManager(t, 4, 30)
	stale := videoProject("p1", "")
	store.put(videoProject("p1", `{"zoom":3}`))

	s, err := m.Open(stale, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Snapshot().(timeline.State).Zoom)
}

func TestOpenAfterShutdown(t *testing.T) {
	m, _ := newTestManager(t, 4, 30)
	m.Shutdown()

	_, err := openProject(m, videoProject("p1", ""))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, m.Len())
}

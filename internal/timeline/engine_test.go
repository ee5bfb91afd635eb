package timeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler holds requested frames until the test steps them.
type manualScheduler struct {
	next    FrameHandle
	pending map[FrameHandle]func()
	order   []FrameHandle
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[FrameHandle]func())}
}

func (s *manualScheduler) RequestFrame(fn func()) FrameHandle {
	s.next++
	s.pending[s.next] = fn
	s.order = append(s.order, s.next)
	return s.next
}

func (s *manualScheduler) CancelFrame(h FrameHandle) {
	delete(s.pending, h)
}

// step fires the oldest pending frame and reports whether one existed.
func (s *manualScheduler) step() bool {
	for len(s.order) > 0 {
		h := s.order[0]
		s.order = s.order[1:]
		if fn, ok := s.pending[h]; ok {
			delete(s.pending, h)
			fn()
			return true
		}
	}
	return false
}

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEngine(t *testing.T) (*Engine, *manualScheduler) {
	t.Helper()
	sched := newManualScheduler()
	return NewEngine(WithScheduler(sched), WithIDGenerator(sequentialIDs())), sched
}

func clip(id string, kind ClipKind, start, length float64, track int) Clip {
	return Clip{
		ID:              id,
		Type:            kind,
		StartTime:       start,
		Duration:        length,
		TrimmedDuration: length,
		Track:           track,
	}
}

func TestAddClipDuration(t *testing.T) {
	tests := []struct {
		name     string
		clips    []Clip
		expected float64
	}{
		{name: "empty timeline", clips: nil, expected: 0},
		{name: "single clip", clips: []Clip{clip("a", ClipVideo, 0, 10, 0)}, expected: 10},
		{
			name: "max end across tracks",
			clips: []Clip{
				clip("a", ClipVideo, 0, 10, 0),
				clip("b", ClipAudio, 3, 12, 1),
				clip("c", ClipText, 14, 0.5, 2),
			},
			expected: 15,
		},
		{
			name: "overlapping clips on one track",
			clips: []Clip{
				clip("a", ClipVideo, 2, 4, 0),
				clip("b", ClipVideo, 1, 3, 0),
			},
			expected: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			for _, c := range tt.clips {
				e.AddClip(c)
			}
			assert.InDelta(t, tt.expected, e.State().Duration, 1e-9)
			assert.Equal(t, len(tt.clips), e.State().ClipCount())
		})
	}
}

func TestAddClipCreatesTracksSortedByIndex(t *testing.T) {
	e, _ := newTestEngine(t)

	e.AddClip(clip("t", ClipText, 0, 1, 2))
	e.AddClip(clip("v", ClipVideo, 0, 1, 0))
	e.AddClip(clip("a", ClipAudio, 0, 1, 1))
	e.AddClip(clip("i", ClipImage, 1, 1, 0))

	s := e.State()
	require.Len(t, s.Tracks, 3)

	assert.Equal(t, []int{0, 1, 2}, []int{s.Tracks[0].Index, s.Tracks[1].Index, s.Tracks[2].Index})
	assert.Equal(t, "track-0", s.Tracks[0].ID)
	assert.Equal(t, TrackVideo, s.Tracks[0].Type)
	assert.Equal(t, "فيديو", s.Tracks[0].Name)
	assert.Equal(t, TrackAudio, s.Tracks[1].Type)
	assert.Equal(t, TrackText, s.Tracks[2].Type)

	// insertion order, not start order
	require.Len(t, s.Tracks[0].Clips, 2)
	assert.Equal(t, "v", s.Tracks[0].Clips[0].ID)
	assert.Equal(t, "i", s.Tracks[0].Clips[1].ID)
}

func TestImageOnlyTrackIsOverlay(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("i", ClipImage, 0, 5, 3))

	s := e.State()
	require.Len(t, s.Tracks, 1)
	assert.Equal(t, TrackOverlay, s.Tracks[0].Type)
	assert.Equal(t, "صور", s.Tracks[0].Name)
}

func TestSplitDeleteScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	e.AddClip(clip("v1", ClipVideo, 0, 10, 0))
	assert.Equal(t, 10.0, e.State().Duration)

	e.SplitClip("v1", 4)

	s := e.State()
	require.Len(t, s.Tracks, 1)
	require.Len(t, s.Tracks[0].Clips, 2)

	part1, part2 := s.Tracks[0].Clips[0], s.Tracks[0].Clips[1]
	assert.Equal(t, "v1-part1", part1.ID)
	assert.Equal(t, 0.0, part1.StartTime)
	assert.Equal(t, 4.0, part1.TrimmedDuration)
	assert.Equal(t, "v1-part2", part2.ID)
	assert.Equal(t, 4.0, part2.StartTime)
	assert.Equal(t, 6.0, part2.TrimmedDuration)
	assert.Equal(t, 10.0, s.Duration)

	e.DeleteClip(part1.ID)

	s = e.State()
	require.Len(t, s.Tracks, 1)
	require.Len(t, s.Tracks[0].Clips, 1)
	assert.Equal(t, 4.0, s.Tracks[0].Clips[0].StartTime)
	assert.Equal(t, 6.0, s.Tracks[0].Clips[0].TrimmedDuration)
	assert.Equal(t, 10.0, s.Duration)
}

func TestSplitPreservesSpanWithoutOverlap(t *testing.T) {
	for _, at := range []float64{2.5, 3, 7.25, 11.9} {
		t.Run(fmt.Sprint(at), func(t *testing.T) {
			e, _ := newTestEngine(t)
			e.AddClip(clip("c", ClipVideo, 2, 10, 0))
			e.SplitClip("c", at)

			clips := e.State().Tracks[0].Clips
			require.Len(t, clips, 2)
			a, b := clips[0], clips[1]

			assert.InDelta(t, 2, min(a.StartTime, b.StartTime), 1e-9)
			assert.InDelta(t, 12, max(a.End(), b.End()), 1e-9)
			assert.LessOrEqual(t, a.End(), b.StartTime+1e-9)
		})
	}
}

func TestSplitCopiesPayload(t *testing.T) {
	e, _ := newTestEngine(t)
	c := NewVideoClip("v", "clip.mp4", "/media/v", 8)
	e.AddClip(c)
	e.AddEffect("v", Effect{Type: EffectBlur, Intensity: 0.5, EndTime: 2})

	e.SplitClip("v", 3)

	s := e.State()
	for _, part := range s.Tracks[0].Clips {
		assert.Equal(t, "clip.mp4", part.Name)
		assert.Equal(t, "/media/v", part.Src)
		require.Len(t, part.Effects, 1)
		assert.Equal(t, EffectBlur, part.Effects[0].Type)
	}
}

func TestDeleteLastClipDropsTrack(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("v", ClipVideo, 0, 10, 0))
	e.AddClip(clip("a", ClipAudio, 0, 4, 1))
	e.SelectClip("v")

	e.DeleteClip("v")

	s := e.State()
	require.Len(t, s.Tracks, 1)
	assert.Equal(t, 1, s.Tracks[0].Index)
	assert.Equal(t, 4.0, s.Duration)
	assert.Nil(t, s.SelectedClipID)

	e.DeleteClip("a")
	s = e.State()
	assert.Empty(t, s.Tracks)
	assert.Equal(t, 0.0, s.Duration)
}

func TestTrimClipOnlyTouchesTarget(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))
	e.AddClip(clip("b", ClipVideo, 10, 5, 0))

	e.TrimClip("a", 1.5, 3)

	s := e.State()
	a, _ := s.FindClip("a")
	b, _ := s.FindClip("b")
	assert.Equal(t, 1.5, a.StartTime)
	assert.Equal(t, 1.5, a.TrimmedDuration)
	assert.Equal(t, 10.0, a.Duration)
	assert.Equal(t, clip("b", ClipVideo, 10, 5, 0), b)
	assert.Equal(t, 15.0, s.Duration)
}

func TestTrimClipAllowsInvertedRange(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))

	e.TrimClip("a", 5, 2)

	a, ok := e.State().FindClip("a")
	require.True(t, ok)
	assert.Equal(t, -3.0, a.TrimmedDuration)
}

func TestSetClipSpeed(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))

	e.SetClipSpeed("a", 2)

	s := e.State()
	a, _ := s.FindClip("a")
	require.NotNil(t, a.Speed)
	assert.Equal(t, 2.0, *a.Speed)
	assert.Equal(t, 5.0, a.TrimmedDuration)
	assert.Equal(t, 5.0, s.Duration)

	e.SetClipSpeed("a", 0.5)
	a, _ = e.State().FindClip("a")
	assert.Equal(t, 20.0, a.TrimmedDuration)
}

func TestAddEffectAssignsID(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))

	e.AddEffect("a", Effect{Type: EffectGlitch, Intensity: 1, StartTime: 8, EndTime: 20, Params: map[string]any{"seed": 4}})
	e.AddEffect("a", Effect{Type: EffectChroma})

	a, _ := e.State().FindClip("a")
	require.Len(t, a.Effects, 2)
	assert.Equal(t, "effect-1", a.Effects[0].ID)
	assert.Equal(t, 20.0, a.Effects[0].EndTime)
	assert.Equal(t, 4, a.Effects[0].Params["seed"])
	assert.Equal(t, "effect-2", a.Effects[1].ID)
}

func TestUnknownClipIsNoop(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))
	before := e.State()

	e.TrimClip("missing", 1, 2)
	e.SplitClip("missing", 3)
	e.DeleteClip("missing")
	e.SetClipSpeed("missing", 3)
	e.AddEffect("missing", Effect{Type: EffectBlur})
	e.MoveClip("missing", 4, 1)

	assert.Equal(t, before, e.State())
}

func TestMoveClip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 4, 0))
	e.AddClip(clip("b", ClipVideo, 4, 4, 0))

	e.MoveClip("a", 10, 0)
	a, _ := e.State().FindClip("a")
	assert.Equal(t, 10.0, a.StartTime)
	assert.Equal(t, 14.0, e.State().Duration)

	e.MoveClip("a", -3, 3)
	s := e.State()
	require.Len(t, s.Tracks, 2)
	assert.Equal(t, 3, s.Tracks[1].Index)
	a, _ = s.FindClip("a")
	assert.Equal(t, 0.0, a.StartTime)
	assert.Equal(t, 3, a.Track)
	assert.Equal(t, 8.0, s.Duration)

	e.MoveClip("b", 1, 3)
	s = e.State()
	require.Len(t, s.Tracks, 1)
	assert.Len(t, s.Tracks[0].Clips, 2)
}

func TestStateSnapshotIsIsolated(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(NewVideoClip("v", "v.mp4", "src", 5))

	s := e.State()
	s.Tracks[0].Clips[0].StartTime = 99
	*s.Tracks[0].Clips[0].Volume = 0

	fresh := e.State()
	assert.Equal(t, 0.0, fresh.Tracks[0].Clips[0].StartTime)
	assert.Equal(t, 1.0, *fresh.Tracks[0].Clips[0].Volume)
}

func TestSeekClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: -5, want: 0},
		{in: 0, want: 0},
		{in: 3.3, want: 3.3},
		{in: 10, want: 10},
		{in: 42, want: 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			e, _ := newTestEngine(t)
			e.AddClip(clip("a", ClipVideo, 0, 10, 0))

			var seeked []any
			e.On(EventSeek, func(data any) { seeked = append(seeked, data) })

			e.Seek(tt.in)
			assert.Equal(t, tt.want, e.State().CurrentTime)
			assert.Equal(t, []any{tt.want}, seeked)
		})
	}
}

type recordingRenderer struct {
	frames []float64
}

func (r *recordingRenderer) RenderStill(s State) {
	r.frames = append(r.frames, s.CurrentTime)
}

func TestSeekRequestsStillRender(t *testing.T) {
	r := &recordingRenderer{}
	e := NewEngine(WithScheduler(newManualScheduler()), WithRenderer(r))
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))

	e.Seek(2)
	assert.Equal(t, []float64{2}, r.frames)
}

func TestDeleteClampsCursor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))
	e.AddClip(clip("b", ClipVideo, 0, 3, 1))
	e.Seek(8)

	e.DeleteClip("a")
	assert.Equal(t, 3.0, e.State().CurrentTime)
}

func TestVolumeMuteRate(t *testing.T) {
	e, _ := newTestEngine(t)

	var volumes []any
	var mutes []any
	var rates []any
	e.On(EventVolumeChange, func(d any) { volumes = append(volumes, d) })
	e.On(EventMuteChange, func(d any) { mutes = append(mutes, d) })
	e.On(EventRateChange, func(d any) { rates = append(rates, d) })

	e.SetVolume(1.7)
	e.SetVolume(-1)
	e.SetVolume(0.4)
	e.ToggleMute()
	e.ToggleMute()
	e.SetPlaybackRate(2)

	s := e.State()
	assert.Equal(t, 0.4, s.Volume)
	assert.False(t, s.Muted)
	assert.Equal(t, 2.0, s.PlaybackRate)
	assert.Equal(t, []any{1.0, 0.0, 0.4}, volumes)
	assert.Equal(t, []any{true, false}, mutes)
	assert.Equal(t, []any{2.0}, rates)
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	e, _ := newTestEngine(t)

	var calls []string
	e.On(EventClipAdded, func(any) { calls = append(calls, "first") })
	e.On(EventClipAdded, func(any) { calls = append(calls, "second") })
	e.On(EventStateChange, func(any) { calls = append(calls, "state") })

	e.AddClip(clip("a", ClipVideo, 0, 1, 0))

	assert.Equal(t, []string{"state", "state", "first", "second"}, calls)
}

func TestStateChangeCarriesSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)

	var last State
	e.On(EventStateChange, func(d any) { last = d.(State) })
	e.AddClip(clip("a", ClipVideo, 0, 7, 0))

	assert.Equal(t, 7.0, last.Duration)
	last.Tracks[0].Clips[0].ID = "mutated"

	_, ok := e.State().FindClip("a")
	assert.True(t, ok)
}

func TestSelectAndZoom(t *testing.T) {
	e, _ := newTestEngine(t)

	e.SelectClip("a")
	require.NotNil(t, e.State().SelectedClipID)
	assert.Equal(t, "a", *e.State().SelectedClipID)

	e.SelectClip("")
	assert.Nil(t, e.State().SelectedClipID)

	e.SetZoom(50)
	assert.Equal(t, MaxZoom, e.State().Zoom)
	e.SetZoom(0)
	assert.Equal(t, MinZoom, e.State().Zoom)
}

func TestTrackToggles(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipAudio, 0, 1, 1))

	e.ToggleTrackMute(1)
	e.ToggleTrackLock(1)
	e.ToggleTrackLock(7)

	tr := e.State().Tracks[0]
	assert.True(t, tr.Muted)
	assert.True(t, tr.Locked)
}

func TestAddTextAtCursor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))
	e.Seek(3)

	c := e.AddText("مرحبا", 0)

	assert.Equal(t, "text-1", c.ID)
	assert.Equal(t, 3.0, c.StartTime)
	assert.Equal(t, DefaultTextDuration, c.TrimmedDuration)
	assert.Equal(t, TextTrackIndex, c.Track)
	require.NotNil(t, c.Text)
	assert.Equal(t, "مرحبا", c.Text.Content)
	assert.Equal(t, 48, c.Text.FontSize)

	s := e.State()
	assert.Equal(t, TrackText, s.Tracks[1].Type)
}

func TestNewMediaClip(t *testing.T) {
	e, _ := newTestEngine(t)

	v, err := e.NewMediaClip(ClipVideo, "a.mp4", "/a", 12)
	require.NoError(t, err)
	assert.Equal(t, "clip-1", v.ID)
	assert.Equal(t, VideoTrackIndex, v.Track)
	assert.Equal(t, 1.0, *v.Speed)

	a, err := e.NewMediaClip(ClipAudio, "a.mp3", "/b", 0)
	require.NoError(t, err)
	assert.Equal(t, AudioTrackIndex, a.Track)
	assert.Equal(t, DefaultAudioDuration, a.Duration)

	i, err := e.NewMediaClip(ClipImage, "a.png", "/c", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStillDuration, i.TrimmedDuration)

	_, err = e.NewMediaClip(ClipText, "x", "", 1)
	assert.Error(t, err)
}

func TestLoadRestoresPaused(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Load(State{
		CurrentTime: 20,
		IsPlaying:   true,
		Tracks: []Track{
			{ID: "track-1", Index: 1, Type: TrackAudio, Clips: []Clip{clip("a", ClipAudio, 0, 3, 1)}},
			{ID: "track-0", Index: 0, Type: TrackVideo, Clips: []Clip{clip("v", ClipVideo, 2, 4, 0)}},
		},
	})

	s := e.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 6.0, s.Duration)
	assert.Equal(t, 6.0, s.CurrentTime)
	assert.Equal(t, 1.0, s.Zoom)
	assert.Equal(t, 1.0, s.PlaybackRate)
	assert.Equal(t, 0, s.Tracks[0].Index)
}

func TestExportVideoStub(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddClip(NewVideoClip("v", "v.mp4", "in.mp4", 5))

	var events []Event
	var started ExportOptions
	var done ExportResult
	e.On(EventExportStart, func(d any) {
		events = append(events, EventExportStart)
		started = d.(ExportOptions)
	})
	e.On(EventExportComplete, func(d any) {
		events = append(events, EventExportComplete)
		done = d.(ExportResult)
	})

	res := e.ExportVideo(ExportOptions{Format: "webm", Filename: "trip"})

	assert.Equal(t, []Event{EventExportStart, EventExportComplete}, events)
	assert.Equal(t, "720p", ExportOptions{Resolution: "720p"}.WithDefaults().Resolution)
	assert.Equal(t, "1080p", started.Resolution)
	assert.Equal(t, "trip.webm", res.Filename)
	assert.Equal(t, "video/webm", res.ContentType)
	assert.Empty(t, res.Blob)
	assert.Equal(t, res.Filename, done.Filename)
	assert.Contains(t, res.RenderArgs, "in.mp4")
	assert.Contains(t, res.RenderArgs, "trip.webm")
}

func TestDisposeDropsListeners(t *testing.T) {
	e, sched := newTestEngine(t)
	e.AddClip(clip("a", ClipVideo, 0, 10, 0))

	calls := 0
	e.On(EventStateChange, func(any) { calls++ })
	e.Play()
	before := calls

	e.Dispose()
	assert.Empty(t, sched.pending)
	assert.Equal(t, before, calls)
}

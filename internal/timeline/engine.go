package timeline

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultFrameRate = 30

// Renderer receives still-frame render requests (seek, playback ticks).
type Renderer interface {
	RenderStill(state State)
}

type Option func(*Engine)

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithFrameRate sets the logical playback step to 1/fps seconds.
func WithFrameRate(fps int) Option {
	return func(e *Engine) {
		if fps > 0 {
			e.fps = fps
		}
	}
}

// WithIDGenerator replaces the generator used for effect and factory ids.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Engine) { e.newID = fn }
}

// Engine owns a timeline state and every operation that mutates it. It is
// not safe for concurrent use: callers serialize access, and listeners are
// invoked synchronously from inside the mutating call.
//
// Without WithScheduler, playback frames fire on timer goroutines while
// holding Locker(). Callers then hold Locker() around every engine call.
type Engine struct {
	mu        sync.Mutex
	state     State
	listeners listeners
	scheduler Scheduler
	renderer  Renderer
	logger    zerolog.Logger
	newID     func(prefix string) string
	fps       int
	frame     FrameHandle
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		state:     initialState(),
		listeners: make(listeners),
		logger:    zerolog.Nop(),
		newID:     defaultID,
		fps:       DefaultFrameRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scheduler == nil {
		e.scheduler = NewTimerScheduler(e.fps, &e.mu)
	}
	return e
}

// Locker is the lock the default scheduler takes before each frame.
func (e *Engine) Locker() sync.Locker {
	return &e.mu
}

func defaultID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// State returns a snapshot of the current timeline state.
func (e *Engine) State() State {
	return e.state.Clone()
}

func (e *Engine) On(event Event, cb Listener) {
	e.listeners.add(event, cb)
}

func (e *Engine) emit(event Event, data any) {
	e.listeners.emit(event, data)
}

func (e *Engine) emitState() {
	e.emit(EventStateChange, e.state.Clone())
}

// Load replaces the whole state with a persisted snapshot. Playback always
// resumes paused.
func (e *Engine) Load(s State) {
	e.cancelFrame()

	s = s.Clone()
	s.IsPlaying = false
	if s.Tracks == nil {
		s.Tracks = []Track{}
	}
	if s.Zoom <= 0 {
		s.Zoom = 1
	}
	if s.PlaybackRate == 0 {
		s.PlaybackRate = 1
	}
	s.Volume = clamp(s.Volume, 0, 1)
	sortTracks(s.Tracks)

	e.state = s
	e.emitState()
	e.updateDuration()
}

func (e *Engine) AddClip(clip Clip) {
	clip = clip.clone()

	idx := e.trackIndex(clip.Track)
	if idx < 0 {
		e.state.Tracks = append(e.state.Tracks, newTrackFor(clip))
		sortTracks(e.state.Tracks)
		idx = e.trackIndex(clip.Track)
	}
	e.state.Tracks[idx].Clips = append(e.state.Tracks[idx].Clips, clip)

	e.logger.Debug().
		Str("clip", clip.ID).
		Str("type", string(clip.Type)).
		Int("track", clip.Track).
		Msg("clip added")

	e.emitState()
	e.updateDuration()
	e.emit(EventClipAdded, clip.clone())
}

// AddText places a text clip on the text track at the playback cursor.
func (e *Engine) AddText(text string, duration float64) Clip {
	clip := NewTextClip(e.newID("text"), text, e.state.CurrentTime, duration)
	e.AddClip(clip)
	return clip
}

func (e *Engine) TrimClip(clipID string, start, end float64) {
	e.eachClip(clipID, func(c *Clip) {
		c.StartTime = start
		c.TrimmedDuration = end - start
	})
	e.emitState()
	e.updateDuration()
}

// SplitClip replaces the clip with two parts meeting at time. The caller is
// responsible for time lying inside the clip's span.
func (e *Engine) SplitClip(clipID string, time float64) {
	for ti := range e.state.Tracks {
		track := &e.state.Tracks[ti]
		ci := indexOfClip(track.Clips, clipID)
		if ci < 0 {
			continue
		}

		orig := track.Clips[ci]
		part1 := orig.clone()
		part1.ID = orig.ID + "-part1"
		part1.TrimmedDuration = time - orig.StartTime

		part2 := orig.clone()
		part2.ID = orig.ID + "-part2"
		part2.StartTime = time
		part2.TrimmedDuration = orig.StartTime + orig.TrimmedDuration - time

		clips := make([]Clip, 0, len(track.Clips)+1)
		clips = append(clips, track.Clips[:ci]...)
		clips = append(clips, part1, part2)
		clips = append(clips, track.Clips[ci+1:]...)
		track.Clips = clips

		e.logger.Debug().Str("clip", clipID).Float64("at", time).Msg("clip split")
		break
	}
	e.emitState()
	e.updateDuration()
}

func (e *Engine) DeleteClip(clipID string) {
	tracks := e.state.Tracks[:0]
	for _, track := range e.state.Tracks {
		kept := track.Clips[:0]
		for _, c := range track.Clips {
			if c.ID != clipID {
				kept = append(kept, c)
			}
		}
		track.Clips = kept
		if len(track.Clips) > 0 {
			tracks = append(tracks, track)
		}
	}
	e.state.Tracks = tracks

	if e.state.SelectedClipID != nil && *e.state.SelectedClipID == clipID {
		e.state.SelectedClipID = nil
	}

	e.emitState()
	e.updateDuration()
}

// SetClipSpeed re-derives the visible length from the source length. A
// non-positive speed is stored as given.
func (e *Engine) SetClipSpeed(clipID string, speed float64) {
	e.eachClip(clipID, func(c *Clip) {
		c.Speed = floatPtr(speed)
		c.TrimmedDuration = c.Duration / speed
	})
	e.emitState()
	e.updateDuration()
}

func (e *Engine) AddEffect(clipID string, effect Effect) {
	effect.ID = e.newID("effect")
	e.eachClip(clipID, func(c *Clip) {
		fx := effect
		if effect.Params != nil {
			fx.Params = make(map[string]any, len(effect.Params))
			for k, v := range effect.Params {
				fx.Params[k] = v
			}
		}
		c.Effects = append(c.Effects, fx)
	})
	e.emitState()
}

// MoveClip places the clip at startTime (never before 0) on the given track
// index, creating the target track and dropping an emptied source track.
func (e *Engine) MoveClip(clipID string, startTime float64, track int) {
	src, ci := -1, -1
	for ti := range e.state.Tracks {
		if i := indexOfClip(e.state.Tracks[ti].Clips, clipID); i >= 0 {
			src, ci = ti, i
			break
		}
	}
	if src < 0 {
		e.emitState()
		return
	}

	clip := e.state.Tracks[src].Clips[ci]
	clip.StartTime = max(0, startTime)

	if clip.Track == track {
		e.state.Tracks[src].Clips[ci] = clip
	} else {
		clips := e.state.Tracks[src].Clips
		e.state.Tracks[src].Clips = append(clips[:ci:ci], clips[ci+1:]...)
		if len(e.state.Tracks[src].Clips) == 0 {
			e.state.Tracks = append(e.state.Tracks[:src], e.state.Tracks[src+1:]...)
		}

		clip.Track = track
		dst := e.trackIndex(track)
		if dst < 0 {
			e.state.Tracks = append(e.state.Tracks, newTrackFor(clip))
			sortTracks(e.state.Tracks)
			dst = e.trackIndex(track)
		}
		e.state.Tracks[dst].Clips = append(e.state.Tracks[dst].Clips, clip)
	}

	e.emitState()
	e.updateDuration()
}

// SelectClip sets the selection; an empty id clears it.
func (e *Engine) SelectClip(clipID string) {
	if clipID == "" {
		e.state.SelectedClipID = nil
	} else {
		e.state.SelectedClipID = &clipID
	}
	e.emitState()
}

func (e *Engine) SetZoom(zoom float64) {
	e.state.Zoom = clamp(zoom, MinZoom, MaxZoom)
	e.emitState()
}

func (e *Engine) ToggleTrackMute(index int) {
	if i := e.trackIndex(index); i >= 0 {
		e.state.Tracks[i].Muted = !e.state.Tracks[i].Muted
	}
	e.emitState()
}

func (e *Engine) ToggleTrackLock(index int) {
	if i := e.trackIndex(index); i >= 0 {
		e.state.Tracks[i].Locked = !e.state.Tracks[i].Locked
	}
	e.emitState()
}

func (e *Engine) Seek(time float64) {
	e.state.CurrentTime = clamp(time, 0, e.state.Duration)
	e.emitState()
	e.renderStill()
	e.emit(EventSeek, e.state.CurrentTime)
}

func (e *Engine) SetVolume(volume float64) {
	e.state.Volume = clamp(volume, 0, 1)
	e.emitState()
	e.emit(EventVolumeChange, e.state.Volume)
}

func (e *Engine) ToggleMute() {
	e.state.Muted = !e.state.Muted
	e.emitState()
	e.emit(EventMuteChange, e.state.Muted)
}

func (e *Engine) SetPlaybackRate(rate float64) {
	e.state.PlaybackRate = rate
	e.emitState()
	e.emit(EventRateChange, rate)
}

// Dispose cancels pending playback frames and drops every listener. The
// engine must not be used afterwards.
func (e *Engine) Dispose() {
	e.cancelFrame()
	e.state.IsPlaying = false
	e.listeners = make(listeners)
}

func (e *Engine) updateDuration() {
	var maxEnd float64
	for _, track := range e.state.Tracks {
		for _, c := range track.Clips {
			if end := c.End(); end > maxEnd {
				maxEnd = end
			}
		}
	}
	e.state.Duration = maxEnd
	if e.state.CurrentTime > maxEnd {
		e.state.CurrentTime = maxEnd
	}
	e.emitState()
}

func (e *Engine) renderStill() {
	if e.renderer != nil {
		e.renderer.RenderStill(e.state.Clone())
	}
}

func (e *Engine) eachClip(clipID string, fn func(c *Clip)) {
	for ti := range e.state.Tracks {
		clips := e.state.Tracks[ti].Clips
		for ci := range clips {
			if clips[ci].ID == clipID {
				fn(&clips[ci])
			}
		}
	}
}

func (e *Engine) trackIndex(index int) int {
	for i, t := range e.state.Tracks {
		if t.Index == index {
			return i
		}
	}
	return -1
}

func indexOfClip(clips []Clip, id string) int {
	for i, c := range clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func sortTracks(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Index < tracks[j].Index
	})
}

func newTrackFor(clip Clip) Track {
	t := Track{
		ID:    trackID(clip.Track),
		Index: clip.Track,
		Clips: []Clip{},
	}
	switch clip.Type {
	case ClipVideo:
		t.Name, t.Type = "فيديو", TrackVideo
	case ClipAudio:
		t.Name, t.Type = "صوت", TrackAudio
	case ClipText:
		t.Name, t.Type = "نصوص", TrackText
	default:
		t.Name, t.Type = "صور", TrackOverlay
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

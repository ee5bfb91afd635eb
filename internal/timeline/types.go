// Package timeline holds the editable video timeline model and the engine
// that mutates it.
package timeline

type ClipKind string

const (
	ClipVideo ClipKind = "video"
	ClipAudio ClipKind = "audio"
	ClipImage ClipKind = "image"
	ClipText  ClipKind = "text"
)

type TrackKind string

const (
	TrackVideo   TrackKind = "video"
	TrackAudio   TrackKind = "audio"
	TrackText    TrackKind = "text"
	TrackOverlay TrackKind = "overlay"
)

type EffectKind string

const (
	EffectBlur      EffectKind = "blur"
	EffectSharpen   EffectKind = "sharpen"
	EffectGlitch    EffectKind = "glitch"
	EffectVintage   EffectKind = "vintage"
	EffectCinematic EffectKind = "cinematic"
	EffectChroma    EffectKind = "chroma"
)

// ValidEffectKind reports whether k is one of the supported effect kinds.
func ValidEffectKind(k EffectKind) bool {
	switch k {
	case EffectBlur, EffectSharpen, EffectGlitch, EffectVintage, EffectCinematic, EffectChroma:
		return true
	}
	return false
}

func ValidClipKind(k ClipKind) bool {
	switch k {
	case ClipVideo, ClipAudio, ClipImage, ClipText:
		return true
	}
	return false
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Transform struct {
	Scale    *float64  `json:"scale,omitempty"`
	Rotation *float64  `json:"rotation,omitempty"`
	Position *Position `json:"position,omitempty"`
	Opacity  *float64  `json:"opacity,omitempty"`
}

type TextStyle struct {
	Content         string `json:"content"`
	FontFamily      string `json:"fontFamily"`
	FontSize        int    `json:"fontSize"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Position        string `json:"position"` // center, top, bottom, custom
}

type Effect struct {
	ID        string         `json:"id"`
	Type      EffectKind     `json:"type"`
	Intensity float64        `json:"intensity"`
	StartTime float64        `json:"startTime"`
	EndTime   float64        `json:"endTime"`
	Params    map[string]any `json:"params,omitempty"`
}

type Filter struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Intensity float64 `json:"intensity"`
}

// Clip is a placed media or text element. StartTime is its position on the
// global timeline; Duration is the source length and TrimmedDuration the
// visible length after trimming or a speed change.
type Clip struct {
	ID              string     `json:"id"`
	Type            ClipKind   `json:"type"`
	Name            string     `json:"name"`
	Src             string     `json:"src"`
	StartTime       float64    `json:"startTime"`
	Duration        float64    `json:"duration"`
	TrimmedDuration float64    `json:"trimmedDuration"`
	Track           int        `json:"track"`
	Volume          *float64   `json:"volume,omitempty"`
	Speed           *float64   `json:"speed,omitempty"`
	Filters         []Filter   `json:"filters,omitempty"`
	Effects         []Effect   `json:"effects,omitempty"`
	Transform       *Transform `json:"transform,omitempty"`
	Text            *TextStyle `json:"text,omitempty"`
}

// End returns the timeline position where the clip stops being visible.
func (c Clip) End() float64 {
	return c.StartTime + c.TrimmedDuration
}

type Track struct {
	ID     string    `json:"id"`
	Index  int       `json:"index"`
	Name   string    `json:"name"`
	Type   TrackKind `json:"type"`
	Clips  []Clip    `json:"clips"`
	Muted  bool      `json:"muted,omitempty"`
	Locked bool      `json:"locked,omitempty"`
	Volume *float64  `json:"volume,omitempty"`
}

type State struct {
	Duration       float64 `json:"duration"`
	CurrentTime    float64 `json:"currentTime"`
	Zoom           float64 `json:"zoom"`
	Tracks         []Track `json:"tracks"`
	SelectedClipID *string `json:"selectedClipId"`
	IsPlaying      bool    `json:"isPlaying"`
	Volume         float64 `json:"volume"`
	Muted          bool    `json:"muted"`
	PlaybackRate   float64 `json:"playbackRate"`
}

func initialState() State {
	return State{
		Zoom:         1,
		Tracks:       []Track{},
		Volume:       1,
		PlaybackRate: 1,
	}
}

// Clone returns a deep copy safe to hand to listeners or other goroutines.
func (s State) Clone() State {
	out := s
	if s.SelectedClipID != nil {
		id := *s.SelectedClipID
		out.SelectedClipID = &id
	}
	out.Tracks = make([]Track, len(s.Tracks))
	for i, t := range s.Tracks {
		out.Tracks[i] = t.clone()
	}
	return out
}

// FindClip returns a copy of the first clip with the given id.
func (s State) FindClip(id string) (Clip, bool) {
	for _, t := range s.Tracks {
		for _, c := range t.Clips {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Clip{}, false
}

// ClipCount returns the number of clips across all tracks.
func (s State) ClipCount() int {
	n := 0
	for _, t := range s.Tracks {
		n += len(t.Clips)
	}
	return n
}

func (t Track) clone() Track {
	out := t
	out.Volume = cloneFloat(t.Volume)
	out.Clips = make([]Clip, len(t.Clips))
	for i, c := range t.Clips {
		out.Clips[i] = c.clone()
	}
	return out
}

func (c Clip) clone() Clip {
	out := c
	out.Volume = cloneFloat(c.Volume)
	out.Speed = cloneFloat(c.Speed)
	if c.Filters != nil {
		out.Filters = append([]Filter(nil), c.Filters...)
	}
	if c.Effects != nil {
		out.Effects = make([]Effect, len(c.Effects))
		for i, e := range c.Effects {
			out.Effects[i] = e
			if e.Params != nil {
				params := make(map[string]any, len(e.Params))
				for k, v := range e.Params {
					params[k] = v
				}
				out.Effects[i].Params = params
			}
		}
	}
	if c.Transform != nil {
		tr := Transform{
			Scale:    cloneFloat(c.Transform.Scale),
			Rotation: cloneFloat(c.Transform.Rotation),
			Opacity:  cloneFloat(c.Transform.Opacity),
		}
		if c.Transform.Position != nil {
			p := *c.Transform.Position
			tr.Position = &p
		}
		out.Transform = &tr
	}
	if c.Text != nil {
		txt := *c.Text
		out.Text = &txt
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func floatPtr(v float64) *float64 {
	return &v
}

type ExportOptions struct {
	Format     string `json:"format,omitempty"`     // mp4, mov, webm
	Resolution string `json:"resolution,omitempty"` // 480p, 720p, 1080p, 4k
	Quality    string `json:"quality,omitempty"`    // low, medium, high
	Filename   string `json:"filename,omitempty"`
}

type ExportResult struct {
	Filename    string   `json:"filename"`
	ContentType string   `json:"contentType"`
	Blob        []byte   `json:"-"`
	Size        int      `json:"size"`
	RenderArgs  []string `json:"renderArgs,omitempty"`
}

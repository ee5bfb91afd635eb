package timeline

import "fmt"

// Default lengths and track placement used when media is loaded.
const (
	DefaultStillDuration = 5.0
	DefaultAudioDuration = 5.0
	DefaultTextDuration  = 5.0

	VideoTrackIndex = 0
	AudioTrackIndex = 1
	TextTrackIndex  = 2
)

func trackID(index int) string {
	return fmt.Sprintf("track-%d", index)
}

func defaultTransform() *Transform {
	return &Transform{
		Scale:    floatPtr(1),
		Rotation: floatPtr(0),
		Position: &Position{},
		Opacity:  floatPtr(1),
	}
}

func NewVideoClip(id, name, src string, duration float64) Clip {
	return Clip{
		ID:              id,
		Type:            ClipVideo,
		Name:            name,
		Src:             src,
		Duration:        duration,
		TrimmedDuration: duration,
		Track:           VideoTrackIndex,
		Volume:          floatPtr(1),
		Speed:           floatPtr(1),
		Transform:       defaultTransform(),
	}
}

func NewImageClip(id, name, src string, duration float64) Clip {
	if duration <= 0 {
		duration = DefaultStillDuration
	}
	return Clip{
		ID:              id,
		Type:            ClipImage,
		Name:            name,
		Src:             src,
		Duration:        duration,
		TrimmedDuration: duration,
		Track:           VideoTrackIndex,
		Transform:       defaultTransform(),
	}
}

func NewAudioClip(id, name, src string, duration float64) Clip {
	if duration <= 0 {
		duration = DefaultAudioDuration
	}
	return Clip{
		ID:              id,
		Type:            ClipAudio,
		Name:            name,
		Src:             src,
		Duration:        duration,
		TrimmedDuration: duration,
		Track:           AudioTrackIndex,
		Volume:          floatPtr(1),
	}
}

func NewTextClip(id, content string, start, duration float64) Clip {
	if duration <= 0 {
		duration = DefaultTextDuration
	}
	return Clip{
		ID:              id,
		Type:            ClipText,
		Name:            "نص",
		StartTime:       start,
		Duration:        duration,
		TrimmedDuration: duration,
		Track:           TextTrackIndex,
		Text: &TextStyle{
			Content:    content,
			FontFamily: "Arial",
			FontSize:   48,
			Color:      "#ffffff",
			Position:   "center",
		},
	}
}

// NewMediaClip builds a clip of the given kind with a generated id, the way
// the editor's media loaders do.
func (e *Engine) NewMediaClip(kind ClipKind, name, src string, duration float64) (Clip, error) {
	switch kind {
	case ClipVideo:
		return NewVideoClip(e.newID("clip"), name, src, duration), nil
	case ClipImage:
		return NewImageClip(e.newID("image"), name, src, duration), nil
	case ClipAudio:
		return NewAudioClip(e.newID("audio"), name, src, duration), nil
	}
	return Clip{}, fmt.Errorf("unsupported media kind %q", kind)
}

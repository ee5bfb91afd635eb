package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipGeometry(t *testing.T) {
	c := clip("a", ClipVideo, 2, 3, 0)

	assert.Equal(t, 200.0, ClipLeft(c, 1))
	assert.Equal(t, 600.0, ClipWidth(c, 2))
	assert.Equal(t, MinClipWidth, ClipWidth(clip("b", ClipVideo, 0, 0.1, 0), 1))
	assert.Equal(t, MinTimelineWidth, TimelineWidth(0, 1))
	assert.Equal(t, 1000.0, TimelineWidth(5, 2))
}

func TestTimeAtOffset(t *testing.T) {
	assert.Equal(t, 1.5, TimeAtOffset(150, 1, 10))
	assert.Equal(t, 10.0, TimeAtOffset(5000, 1, 10))
	assert.Equal(t, 0.0, TimeAtOffset(-40, 1, 10))
	assert.Equal(t, 0.0, PixelsToSeconds(100, 0))
}

func TestDragDeltas(t *testing.T) {
	c := clip("a", ClipVideo, 2, 4, 0)

	start, end := TrimStartByDelta(c, 100, 1)
	assert.Equal(t, 3.0, start)
	assert.Equal(t, 6.0, end)

	start, _ = TrimStartByDelta(c, -1000, 1)
	assert.Equal(t, 0.0, start)

	start, end = TrimEndByDelta(c, -50, 2)
	assert.Equal(t, 2.0, start)
	assert.Equal(t, 5.75, end)

	_, end = TrimEndByDelta(c, -10000, 1)
	assert.Equal(t, 2.0, end)

	assert.Equal(t, 2.5, MoveByDelta(c, 50, 1))
	assert.Equal(t, 0.0, MoveByDelta(c, -500, 1))
}

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{1.5, "00:01:15"},
		{61.25, "01:01:07"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimecode(tt.in))
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "1:05", FormatClock(65.9))
	assert.Equal(t, "1:01:01", FormatClock(3661))
}

func TestValidateTrim(t *testing.T) {
	require.NoError(t, ValidateTrim(0, 0))
	require.NoError(t, ValidateTrim(1, 4))
	assert.ErrorIs(t, ValidateTrim(-1, 4), ErrNegativeStart)
	assert.ErrorIs(t, ValidateTrim(5, 4), ErrInvalidRange)
	assert.ErrorIs(t, ValidateTrim(math.NaN(), 4), ErrNotFinite)
	assert.ErrorIs(t, ValidateTrim(0, math.Inf(1)), ErrNotFinite)
}

func TestValidateSplit(t *testing.T) {
	c := clip("a", ClipVideo, 2, 4, 0)

	require.NoError(t, ValidateSplit(c, 3))
	for _, at := range []float64{2, 6, 1, 7} {
		err := ValidateSplit(c, at)
		assert.True(t, errors.Is(err, ErrSplitOutside), "split at %g", at)
	}
}

func TestValidateSpeedAndEffect(t *testing.T) {
	require.NoError(t, ValidateSpeed(0.25))
	assert.ErrorIs(t, ValidateSpeed(0), ErrInvalidSpeed)
	assert.ErrorIs(t, ValidateSpeed(-2), ErrInvalidSpeed)

	require.NoError(t, ValidateEffect(Effect{Type: EffectVintage, EndTime: 3}))
	assert.ErrorIs(t, ValidateEffect(Effect{Type: "sepia"}), ErrInvalidEffect)
	assert.ErrorIs(t, ValidateEffect(Effect{Type: EffectBlur, StartTime: 4, EndTime: 1}), ErrInvalidRange)
}

func TestValidateAgainstClip(t *testing.T) {
	c := clip("a", ClipVideo, 0, 10, 0)

	require.NoError(t, ValidateClipSpeed(c, 0.5))
	assert.ErrorIs(t, ValidateClipSpeed(c, 1e-320), ErrNotFinite)
	assert.ErrorIs(t, ValidateClipSpeed(c, 0), ErrInvalidSpeed)

	require.NoError(t, ValidateMove(c, 30))
	assert.ErrorIs(t, ValidateMove(c, 1.7e308), ErrNotFinite)
	assert.ErrorIs(t, ValidateMove(c, -1), ErrNegativeStart)

	require.NoError(t, ValidateClip(c))
	bad := c
	bad.Type = "hologram"
	assert.ErrorIs(t, ValidateClip(bad), ErrInvalidKind)
	far := c
	far.StartTime, far.TrimmedDuration = 1.7e308, 1.7e308
	assert.ErrorIs(t, ValidateClip(far), ErrNotFinite)
}

func TestExportPresets(t *testing.T) {
	p, ok := FindPreset("youtube-1080p")
	require.True(t, ok)
	assert.Equal(t, 16, p.Bitrate)

	_, ok = FindPreset("vhs")
	assert.False(t, ok)

	est := EstimateSize(p, 10)
	assert.Equal(t, uint64(16*1000*10/8*1024), est.Bytes)
	assert.Equal(t, "20 MiB", est.Label)
}

func TestPresetOptions(t *testing.T) {
	tests := []struct {
		id         string
		resolution string
		quality    string
		format     string
	}{
		{"youtube-1080p", "1080p", "high", "mp4"},
		{"instagram-reel", "1080p", "high", "mp4"},
		{"facebook-feed", "720p", "medium", "mp4"},
		{"twitter-card", "720p", "low", "mp4"},
		{"prores-422", "1080p", "high", "mov"},
	}
	for _, tt := range tests {
		p, ok := FindPreset(tt.id)
		require.True(t, ok, tt.id)
		o := p.Options()
		assert.Equal(t, tt.resolution, o.Resolution, tt.id)
		assert.Equal(t, tt.quality, o.Quality, tt.id)
		assert.Equal(t, tt.format, o.Format, tt.id)
		assert.Equal(t, tt.id, o.Filename)
	}
}

func TestRenderArgs(t *testing.T) {
	s := State{Tracks: []Track{
		{Index: 0, Clips: []Clip{
			NewVideoClip("b", "b", "b.mp4", 3),
			NewImageClip("i", "i", "i.png", 2),
		}},
	}}
	s.Tracks[0].Clips[0].StartTime = 4
	s.Tracks[0].Clips = append(s.Tracks[0].Clips, NewVideoClip("a", "a", "a.mp4", 4))

	args := RenderArgs(s, ExportOptions{Resolution: "720p", Quality: "low", Filename: "out"})
	require.NotEmpty(t, args)

	ia, ib := -1, -1
	for i, a := range args {
		switch a {
		case "a.mp4":
			ia = i
		case "b.mp4":
			ib = i
		}
	}
	assert.True(t, ia >= 0 && ib > ia, "inputs in start order: %v", args)
	assert.NotContains(t, args, "i.png")
	assert.Contains(t, args, "4M")
	assert.Contains(t, args, "out.mp4")

	assert.Nil(t, RenderArgs(State{}, ExportOptions{}))
}

package timeline

import (
	"fmt"
	"math"
)

const (
	// PixelsPerSecond is the horizontal scale of the timeline at zoom 1.
	PixelsPerSecond = 100.0
	// MinClipWidth keeps very short clips grabbable.
	MinClipWidth = 30.0
	// MinTimelineWidth is the width of an empty timeline.
	MinTimelineWidth = 400.0

	MinZoom = 0.1
	MaxZoom = 10.0
)

func scale(zoom float64) float64 {
	return PixelsPerSecond * zoom
}

// ClipLeft returns the clip's x offset in pixels.
func ClipLeft(c Clip, zoom float64) float64 {
	return c.StartTime * scale(zoom)
}

// ClipWidth returns the clip's rendered width in pixels.
func ClipWidth(c Clip, zoom float64) float64 {
	return max(MinClipWidth, c.TrimmedDuration*scale(zoom))
}

// TimelineWidth returns the scrollable width of a timeline of the given duration.
func TimelineWidth(duration, zoom float64) float64 {
	return max(MinTimelineWidth, duration*scale(zoom))
}

// PixelsToSeconds converts a horizontal drag delta to seconds.
func PixelsToSeconds(px, zoom float64) float64 {
	if zoom <= 0 {
		return 0
	}
	return px / scale(zoom)
}

// TimeAtOffset maps a ruler click at x pixels to a time clamped to the timeline.
func TimeAtOffset(x, zoom, duration float64) float64 {
	return clamp(PixelsToSeconds(x, zoom), 0, duration)
}

// TrimStartByDelta returns the (start, end) pair for TrimClip after dragging
// the clip's left edge by deltaPx. The end stays fixed.
func TrimStartByDelta(c Clip, deltaPx, zoom float64) (start, end float64) {
	end = c.End()
	start = clamp(c.StartTime+PixelsToSeconds(deltaPx, zoom), 0, end)
	return start, end
}

// TrimEndByDelta returns the (start, end) pair for TrimClip after dragging
// the clip's right edge by deltaPx. The start stays fixed.
func TrimEndByDelta(c Clip, deltaPx, zoom float64) (start, end float64) {
	start = c.StartTime
	end = max(start, c.End()+PixelsToSeconds(deltaPx, zoom))
	return start, end
}

// MoveByDelta returns the new start time after dragging the clip body by deltaPx.
func MoveByDelta(c Clip, deltaPx, zoom float64) float64 {
	return max(0, c.StartTime+PixelsToSeconds(deltaPx, zoom))
}

// FormatTimecode renders seconds as mm:ss:ff with 30 frames per second.
func FormatTimecode(seconds float64) string {
	seconds = max(0, seconds)
	mins := int(seconds / 60)
	secs := int(math.Mod(seconds, 60))
	frames := int(math.Mod(seconds, 1) * DefaultFrameRate)
	return fmt.Sprintf("%02d:%02d:%02d", mins, secs, frames)
}

// FormatClock renders seconds as h:mm:ss, or m:ss below one hour.
func FormatClock(seconds float64) string {
	seconds = max(0, seconds)
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	secs := int(math.Mod(seconds, 60))
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

package timeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type ExportPreset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Platform   string `json:"platform"`
	Resolution string `json:"resolution"`
	Bitrate    int    `json:"bitrate"` // Mbps
	Format     string `json:"format"`
	FPS        int    `json:"fps"`
}

var ExportPresets = []ExportPreset{
	{ID: "youtube-1080p", Name: "YouTube 1080p", Platform: "youtube", Resolution: "1920x1080", Bitrate: 16, Format: "mp4", FPS: 30},
	{ID: "instagram-reel", Name: "Instagram Reel", Platform: "instagram", Resolution: "1080x1920", Bitrate: 15, Format: "mp4", FPS: 30},
	{ID: "facebook-feed", Name: "Facebook Feed", Platform: "facebook", Resolution: "1280x720", Bitrate: 8, Format: "mp4", FPS: 30},
	{ID: "twitter-card", Name: "Twitter Card", Platform: "twitter", Resolution: "1280x720", Bitrate: 6, Format: "mp4", FPS: 30},
	{ID: "h264-master", Name: "H.264 Master", Platform: "professional", Resolution: "1920x1080", Bitrate: 50, Format: "mp4", FPS: 30},
	{ID: "prores-422", Name: "ProRes 422", Platform: "professional", Resolution: "1920x1080", Bitrate: 147, Format: "mov", FPS: 30},
}

func FindPreset(id string) (ExportPreset, bool) {
	for _, p := range ExportPresets {
		if p.ID == id {
			return p, true
		}
	}
	return ExportPreset{}, false
}

// Options maps the preset onto export options: the short side picks the
// resolution and the bitrate picks the quality.
func (p ExportPreset) Options() ExportOptions {
	var w, h int
	fmt.Sscanf(p.Resolution, "%dx%d", &w, &h)
	short := min(w, h)

	o := ExportOptions{Format: p.Format, Filename: p.ID}
	switch {
	case short >= 2160:
		o.Resolution = "4k"
	case short >= 1080:
		o.Resolution = "1080p"
	case short >= 720:
		o.Resolution = "720p"
	default:
		o.Resolution = "480p"
	}
	switch {
	case p.Bitrate >= 15:
		o.Quality = "high"
	case p.Bitrate >= 8:
		o.Quality = "medium"
	default:
		o.Quality = "low"
	}
	return o
}

type SizeEstimate struct {
	Bytes uint64 `json:"bytes"`
	Label string `json:"label"`
}

// EstimateSize approximates the encoded size of duration seconds at the
// preset's bitrate.
func EstimateSize(p ExportPreset, duration float64) SizeEstimate {
	if duration < 0 {
		duration = 0
	}
	kilobytes := float64(p.Bitrate) * 1000 * duration / 8
	b := uint64(kilobytes * 1024)
	return SizeEstimate{Bytes: b, Label: humanize.IBytes(b)}
}

var resolutions = map[string][2]int{
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4k":    {3840, 2160},
}

var qualityBitrates = map[string]string{
	"low":    "4M",
	"medium": "8M",
	"high":   "16M",
}

var formatTypes = map[string]string{
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
}

// WithDefaults fills unset or unknown options.
func (o ExportOptions) WithDefaults() ExportOptions {
	if _, ok := formatTypes[o.Format]; !ok {
		o.Format = "mp4"
	}
	if _, ok := resolutions[o.Resolution]; !ok {
		o.Resolution = "1080p"
	}
	if _, ok := qualityBitrates[o.Quality]; !ok {
		o.Quality = "high"
	}
	if o.Filename == "" {
		o.Filename = "video"
	}
	return o
}

func (o ExportOptions) outputName() string {
	ext := "." + o.Format
	if strings.EqualFold(filepath.Ext(o.Filename), ext) {
		return o.Filename
	}
	return o.Filename + ext
}

// ExportVideo does not encode anything: it announces the export, then
// completes it with an empty blob and the ffmpeg arguments an external
// encoder would need for the current cut.
func (e *Engine) ExportVideo(opts ExportOptions) ExportResult {
	opts = opts.WithDefaults()
	e.emit(EventExportStart, opts)

	res := ExportResult{
		Filename:    opts.outputName(),
		ContentType: formatTypes[opts.Format],
		Blob:        []byte{},
		RenderArgs:  RenderArgs(e.state, opts),
	}

	e.logger.Info().
		Str("file", res.Filename).
		Str("resolution", opts.Resolution).
		Int("clips", e.state.ClipCount()).
		Msg("export requested")

	e.emit(EventExportComplete, res)
	return res
}

// RenderArgs builds the ffmpeg command line that concatenates the video clips
// of the timeline in start order and scales them to the export resolution.
// It returns nil when the timeline has no video clip.
func RenderArgs(s State, opts ExportOptions) []string {
	opts = opts.WithDefaults()

	var clips []Clip
	for _, t := range s.Tracks {
		for _, c := range t.Clips {
			if c.Type == ClipVideo && c.TrimmedDuration > 0 {
				clips = append(clips, c)
			}
		}
	}
	if len(clips) == 0 {
		return nil
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartTime < clips[j].StartTime
	})

	streams := make([]*ffmpeg.Stream, 0, len(clips))
	for _, c := range clips {
		streams = append(streams, ffmpeg.Input(c.Src, ffmpeg.KwArgs{
			"t": fmt.Sprintf("%.3f", c.TrimmedDuration),
		}))
	}

	out := streams[0]
	if len(streams) > 1 {
		out = ffmpeg.Concat(streams)
	}

	size := resolutions[opts.Resolution]
	return out.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", size[0], size[1])}).
		Output(opts.outputName(), ffmpeg.KwArgs{
			"b:v": qualityBitrates[opts.Quality],
			"r":   DefaultFrameRate,
		}).
		OverWriteOutput().
		GetArgs()
}

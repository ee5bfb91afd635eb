package media

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const probeTimeout = 30 * time.Second

// Metadata is what the editor needs from a probed file.
type Metadata struct {
	Duration      float64 // seconds
	Width         int     // display width, rotation applied
	Height        int
	FrameRate     float64
	VideoCodec    string
	AudioCodec    string
	AudioChannels int
	Bitrate       int64
}

// HasAudio reports whether the file carries an audio stream.
func (m *Metadata) HasAudio() bool { return m.AudioCodec != "" }

type MetadataExtractor struct {
	logger zerolog.Logger
}

func NewMetadataExtractor(logger zerolog.Logger) *MetadataExtractor {
	return &MetadataExtractor{logger: logger}
}

func (m *MetadataExtractor) IsAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

func (m *MetadataExtractor) Extract(filePath string) (*Metadata, error) {
	output, err := ffmpeg.ProbeWithTimeout(filePath, probeTimeout, ffmpeg.KwArgs{})
	if err != nil {
		m.logger.Debug().Err(err).Str("file", filePath).Msg("ffprobe failed")
		return nil, err
	}
	return parseProbe([]byte(output))
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string            `json:"codec_type"`
		CodecName    string            `json:"codec_name"`
		Width        int               `json:"width"`
		Height       int               `json:"height"`
		Channels     int               `json:"channels"`
		AvgFrameRate string            `json:"avg_frame_rate"`
		Tags         map[string]string `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// parseProbe reads ffprobe JSON. Only the first video and first audio stream
// count; clips from phones are rotated through the "rotate" tag.
func parseProbe(output []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	meta := &Metadata{}
	meta.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	meta.Bitrate, _ = strconv.ParseInt(probe.Format.BitRate, 10, 64)

	for _, st := range probe.Streams {
		if st.CodecType == "audio" && meta.AudioCodec == "" {
			meta.AudioCodec = strings.ToUpper(st.CodecName)
			meta.AudioChannels = st.Channels
		}
		if st.CodecType != "video" || meta.VideoCodec != "" {
			continue
		}
		meta.VideoCodec = strings.ToUpper(st.CodecName)
		meta.Width, meta.Height = st.Width, st.Height
		if rot := st.Tags["rotate"]; rot == "90" || rot == "270" || rot == "-90" {
			meta.Width, meta.Height = meta.Height, meta.Width
		}
		meta.FrameRate = parseRate(st.AvgFrameRate)
	}

	return meta, nil
}

// parseRate turns "30000/1001" into frames per second; "0/0" yields 0.
func parseRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
